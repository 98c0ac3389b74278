package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, StoreBackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 10, cfg.MaxUploadMB)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Supabase")
	t.Setenv("MAX_UPLOAD_MB", "25")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, ,https://admin.example.com")
	t.Setenv("DEFAULT_PAGE_SIZE", "12")

	cfg := Load()

	assert.Equal(t, StoreBackendSupabase, cfg.StoreBackend)
	assert.Equal(t, 25, cfg.MaxUploadMB)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, 12, cfg.DefaultPageSize)
}

func TestLoad_InvalidUploadLimitFallsBack(t *testing.T) {
	t.Setenv("MAX_UPLOAD_MB", "-3")

	assert.Equal(t, 10, Load().MaxUploadMB)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"postgres", Config{StoreBackend: StoreBackendPostgres}, ""},
		{"supabase without credentials", Config{StoreBackend: StoreBackendSupabase}, "SUPABASE_URL"},
		{"supabase", Config{StoreBackend: StoreBackendSupabase, SupabaseURL: "https://x.supabase.co", SupabaseServiceKey: "key"}, ""},
		{"unknown backend", Config{StoreBackend: "mongo"}, "unknown STORE_BACKEND"},
		{"production without admin password", Config{StoreBackend: StoreBackendPostgres, Environment: "production"}, "ADMIN_PASSWORD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_Archive(t *testing.T) {
	t.Setenv("IMPORT_ARCHIVE_BUCKET", "")
	assert.False(t, Load().ArchiveEnabled())

	t.Setenv("IMPORT_ARCHIVE_BUCKET", "catalog-uploads")
	t.Setenv("AWS_ENDPOINT", "http://localhost:9000")

	cfg := Load()
	assert.True(t, cfg.ArchiveEnabled())
	assert.Equal(t, "catalog-imports", cfg.ArchivePrefix)
	assert.Equal(t, "http://localhost:9000", cfg.AWSEndpoint)
}
