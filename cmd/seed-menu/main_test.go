package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMenuEmbedded(t *testing.T) {
	items, err := loadMenu("")
	require.NoError(t, err)
	require.NotEmpty(t, items)
	for _, it := range items {
		assert.NotEmpty(t, it.ID)
		assert.True(t, it.Price.IsPositive(), it.ID)
	}
}

func TestLoadMenuFile(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr string
	}{
		{
			name: "Valid",
			body: `[{"id":"a","name":"Wrap","price":1500,"category":"wraps","available":true}]`,
			want: 1,
		},
		{
			name:    "Duplicate",
			body:    `[{"id":"a","name":"Wrap","price":1},{"id":"a","name":"Wrap","price":1}]`,
			wantErr: "listed twice",
		},
		{
			name:    "ZeroPrice",
			body:    `[{"id":"a","name":"Wrap","price":0}]`,
			wantErr: "price must be positive",
		},
		{
			name:    "MissingName",
			body:    `[{"id":"a","price":10}]`,
			wantErr: "id and name are required",
		},
		{
			name:    "NotJSON",
			body:    `{`,
			wantErr: "parse menu JSON",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "menu.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			items, err := loadMenu(path)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, items, tt.want)
		})
	}
}
