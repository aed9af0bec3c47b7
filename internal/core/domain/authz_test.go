package domain_test

import (
	"testing"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name  string
		actor string
		own   domain.Ownership
		want  bool
	}{
		{"StoreOwner", "u1", domain.Ownership{Kind: domain.ResourceStore, StoreOwnerID: "u1"}, true},
		{"StoreStranger", "u2", domain.Ownership{Kind: domain.ResourceStore, StoreOwnerID: "u1"}, false},
		{"ProductCreator", "u2", domain.Ownership{Kind: domain.ResourceProduct, StoreOwnerID: "u1", CreatorID: "u2"}, true},
		{"ProductViaStore", "u1", domain.Ownership{Kind: domain.ResourceProduct, StoreOwnerID: "u1", CreatorID: "u2"}, true},
		{"ProductStranger", "u3", domain.Ownership{Kind: domain.ResourceProduct, StoreOwnerID: "u1", CreatorID: "u2"}, false},
		{"OrderStoreOwner", "u1", domain.Ownership{Kind: domain.ResourceOrder, StoreOwnerID: "u1"}, true},
		{"OrderStranger", "u2", domain.Ownership{Kind: domain.ResourceOrder, StoreOwnerID: "u1"}, false},
		{"Anonymous", "", domain.Ownership{Kind: domain.ResourceStore}, false},
		{"UnknownKind", "u1", domain.Ownership{Kind: "page", StoreOwnerID: "u1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.CanMutate(tt.actor, tt.own))
		})
	}
}
