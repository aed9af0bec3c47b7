package storage

// Storage groups the repositories sharing one database handle.
type Storage struct {
	UsersRepository
	StoresRepository
	ProductsRepository
	OrdersRepository
	OwnershipRepository
}

func New(db sqldb) Storage {
	return Storage{
		UsersRepository:     NewUsersRepository(db),
		StoresRepository:    NewStoresRepository(db),
		ProductsRepository:  NewProductsRepository(db),
		OrdersRepository:    NewOrdersRepository(db),
		OwnershipRepository: NewOwnershipRepository(db),
	}
}
