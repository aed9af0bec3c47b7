package domain

type ResourceKind string

const (
	ResourceStore   ResourceKind = "store"
	ResourceProduct ResourceKind = "product"
	ResourceOrder   ResourceKind = "order"
)

func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceStore, ResourceProduct, ResourceOrder:
		return true
	}
	return false
}

// Ownership lists who owns a resource. A product is owned by its creator and
// by the owner of its store. An order is owned by the owner of its store.
type Ownership struct {
	Kind         ResourceKind
	ID           string
	StoreOwnerID string
	CreatorID    string
}

// CanMutate is the single authorization predicate for writes on stores,
// products and orders.
func CanMutate(actorID string, o Ownership) bool {
	if actorID == "" {
		return false
	}
	switch o.Kind {
	case ResourceStore, ResourceOrder:
		return o.StoreOwnerID == actorID
	case ResourceProduct:
		return o.CreatorID == actorID || o.StoreOwnerID == actorID
	}
	return false
}
