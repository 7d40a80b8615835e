package audit

import (
	"github.com/frahmantamala/license-portal/internal/core/common/validation"
)

type EntriesResponse struct {
	Entries []*Entry `json:"entries"`
}

func newListValidator(entityType, entityID string) *validation.ValidationBuilder {
	v := validation.NewValidator()
	v.Field("entity_type", entityType).Required()
	v.Field("entity_id", entityID).Required()
	return v
}
