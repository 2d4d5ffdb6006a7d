package shop

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	mf      *Metafield
	err     error
	lastKey MetafieldKey
}

func (m *mockRepo) FindMetafield(_ context.Context, key MetafieldKey) (*Metafield, error) {
	m.lastKey = key
	return m.mf, m.err
}

func TestConfigText(t *testing.T) {
	value := `[]`
	key := MetafieldKey{ShopID: "shop-1", Namespace: DefaultNamespace, Key: DefaultKey}

	tests := []struct {
		name    string
		repo    *mockRepo
		want    *string
		wantErr string
	}{
		{
			name: "value present",
			repo: &mockRepo{mf: &Metafield{MetafieldKey: key, Value: &value}},
			want: &value,
		},
		{
			name: "metafield without value",
			repo: &mockRepo{mf: &Metafield{MetafieldKey: key}},
			want: nil,
		},
		{
			name: "metafield missing",
			repo: &mockRepo{err: ErrMetafieldNotFound},
			want: nil,
		},
		{
			name:    "repository failure",
			repo:    &mockRepo{err: errors.New("connection reset")},
			wantErr: "find metafield",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfigText(context.Background(), tt.repo, key)

			assert.Equal(t, key, tt.repo.lastKey)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
