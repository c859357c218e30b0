package utils

import (
	"os"
	"path/filepath"

	coreconfig "github.com/AzielCF/az-hub/core/config"
)

// GetTenantStoragePath returns the media blob directory for a tenant,
// creating it if needed. Blobs never live outside this tree.
func GetTenantStoragePath(tenantID string) string {
	path := filepath.Join(coreconfig.Global.Paths.Storages, "tenants", tenantID)
	_ = os.MkdirAll(path, 0755)
	return path
}

// GetSendItemsPath returns the scratch directory used while assembling
// multipart uploads for the bridge.
func GetSendItemsPath() string {
	path := coreconfig.Global.Paths.SendItems
	_ = os.MkdirAll(path, 0755)
	return path
}
