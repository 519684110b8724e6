package repository

import (
	"context"

	"github.com/stopwatch-io/stopwatch-ce/internal/models"
)

// ArchivableKind enumerates the entities that support archive/retrieve.
// The set is closed: dispatch is a switch over these constants, so no
// query is ever built from a caller-supplied table name.
type ArchivableKind string

const (
	KindActionItem ArchivableKind = "action_item"
	KindItemRate   ArchivableKind = "item_rate"
	KindItemType   ArchivableKind = "item_type"
	KindUser       ArchivableKind = "user"
)

// ParseArchivableKind maps wire input onto the closed set.
func ParseArchivableKind(s string) (ArchivableKind, error) {
	switch ArchivableKind(s) {
	case KindActionItem, KindItemRate, KindItemType, KindUser:
		return ArchivableKind(s), nil
	default:
		return "", &models.ValidationError{Field: "kind", Reason: "unknown archivable entity"}
	}
}

// Archiver fans archive/retrieve requests out to the typed per-entity
// operations.
type Archiver struct {
	catalog *SQLCatalogRepository
	users   *SQLUserRepository
}

func NewArchiver(catalog *SQLCatalogRepository, users *SQLUserRepository) *Archiver {
	return &Archiver{catalog: catalog, users: users}
}

func (a *Archiver) Archive(ctx context.Context, kind ArchivableKind, id int64) error {
	switch kind {
	case KindActionItem:
		return a.catalog.ArchiveActionItem(ctx, id)
	case KindItemRate:
		return a.catalog.ArchiveRate(ctx, id)
	case KindItemType:
		return a.catalog.ArchiveType(ctx, id)
	case KindUser:
		return a.users.Archive(ctx, id)
	default:
		return &models.ValidationError{Field: "kind", Reason: "unknown archivable entity"}
	}
}

func (a *Archiver) Retrieve(ctx context.Context, kind ArchivableKind, id int64) error {
	switch kind {
	case KindActionItem:
		return a.catalog.RetrieveActionItem(ctx, id)
	case KindItemRate:
		return a.catalog.RetrieveRate(ctx, id)
	case KindItemType:
		return a.catalog.RetrieveType(ctx, id)
	case KindUser:
		return a.users.Retrieve(ctx, id)
	default:
		return &models.ValidationError{Field: "kind", Reason: "unknown archivable entity"}
	}
}
