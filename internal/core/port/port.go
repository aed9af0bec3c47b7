package port

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/niksmo/storebuilder/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

////////////////////////////////////////////////////////
///////////////         OUTBOUND          //////////////
////////////////////////////////////////////////////////

type UsersStorage interface {
	CreateUser(context.Context, domain.User) error
	ReadUser(ctx context.Context, id string) (domain.User, error)
	ReadUserByEmail(ctx context.Context, email string) (domain.User, error)
	ReadUserByReferralCode(ctx context.Context, code string) (domain.User, error)
	UpdateUser(context.Context, domain.User) error
	DeleteUser(ctx context.Context, id string) error
	AddReferral(ctx context.Context, referrerID string, r domain.Referral) error
	ReadPlans(ctx context.Context, ids []string) (map[string]domain.Plan, error)
	ListReferredUsers(context.Context, domain.ReferralFilter) ([]domain.User, int, error)
	ReferralStats(ctx context.Context, referrerID string, since time.Time) ([]domain.ReferralDay, error)
	// RequestPayout decrements the pending balance and stores the payout in
	// one transaction.
	RequestPayout(context.Context, domain.Payout) error
}

type StoresStorage interface {
	CreateStore(context.Context, domain.Store) error
	ReadStore(ctx context.Context, id string) (domain.Store, error)
	ReadStoreBySlug(ctx context.Context, slug string) (domain.Store, error)
	SlugTaken(ctx context.Context, slug, exceptID string) (bool, error)
	UpdateStore(context.Context, domain.Store) error
	DeleteStore(ctx context.Context, id string) error
	ListStores(context.Context, domain.StoreFilter) ([]domain.Store, int, error)
	ListStoresByOwner(ctx context.Context, ownerID string) ([]domain.Store, error)
	RecordStoreVisit(ctx context.Context, id string) error
}

type ProductsStorage interface {
	CreateProduct(context.Context, domain.Product) error
	ReadProduct(ctx context.Context, id string) (domain.Product, error)
	ReadProducts(ctx context.Context, ids []string) ([]domain.Product, error)
	UpdateProduct(context.Context, domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(context.Context, domain.ProductFilter) ([]domain.Product, int, error)
	RecordProductView(ctx context.Context, id string) error
}

type OrdersStorage interface {
	CreateOrder(context.Context, domain.Order) error
	ReadOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(context.Context, domain.OrderFilter) ([]domain.Order, int, error)
	// ModifyOrder locks the order, applies fn and persists the order with
	// the effects fn returns in one transaction. When fn returns an error
	// nothing is written.
	ModifyOrder(
		ctx context.Context, id string,
		fn func(*domain.Order) (domain.OrderEffects, error),
	) (domain.Order, error)
	OrderSummary(ctx context.Context, storeID string, since *time.Time) (domain.OrderSummary, error)
	OrderDailyStats(ctx context.Context, storeID string, since time.Time) ([]domain.DailyStat, error)
	CommissionSummary(ctx context.Context, referrerID string) (domain.CommissionSummary, error)
	ListCommissions(context.Context, domain.CommissionFilter) ([]domain.Order, int, error)
	CommissionDailyStats(ctx context.Context, referrerID string, since time.Time) ([]domain.DailyStat, error)
	// CustomerCommissions returns completed orders attributed to referrerID
	// grouped by customer user id.
	CustomerCommissions(ctx context.Context, referrerID string, customerIDs []string) (map[string][]domain.Order, error)
}

type OwnershipReader interface {
	ReadOwnership(ctx context.Context, kind domain.ResourceKind, id string) (domain.Ownership, error)
}

// Storage groups the persistence ports backed by one database.
type Storage interface {
	UsersStorage
	StoresStorage
	ProductsStorage
	OrdersStorage
	OwnershipReader
}

type TokenIssuer interface {
	IssueToken(userID string) (string, error)
	ParseToken(token string) (userID string, err error)
}

type PaymentGateway interface {
	// Ready reports whether Checkout can build a redirect.
	Ready() error
	Checkout(domain.Order, domain.Store) (domain.CheckoutRedirect, error)
	VerifyNotification(url.Values) (domain.PaymentNotification, error)
}

type OrderEventPublisher interface {
	PublishOrderEvents(context.Context, ...domain.OrderEvent) error
}

type SalesLedgerReader interface {
	StoreSales(ctx context.Context, storeID string) (domain.StoreSales, error)
}

type SalesLedgerProcessor interface {
	runnerContextWg
	closer
}

////////////////////////////////////////////////////////
///////////////          INBOUND          //////////////
////////////////////////////////////////////////////////

type Authenticator interface {
	Register(context.Context, domain.Registration) (domain.Session, error)
	Login(ctx context.Context, email, password string) (domain.Session, error)
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, actorID string, kind domain.ResourceKind, id string) error
}

type UserManager interface {
	Profile(ctx context.Context, userID string) (domain.User, []domain.Store, error)
	UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (domain.User, error)
	Dashboard(ctx context.Context, userID string) (domain.Dashboard, error)
	ChangePlan(ctx context.Context, userID string, plan domain.Plan) (domain.User, error)
	DeleteAccount(ctx context.Context, userID, password string) error
}

type StoreManager interface {
	CreateStore(ctx context.Context, ownerID string, in domain.StoreInput) (domain.Store, error)
	UpdateStore(ctx context.Context, id string, in domain.StoreInput) (domain.Store, error)
	DeleteStore(ctx context.Context, id string) error
	PublicStores(context.Context, domain.StoreFilter) ([]domain.Store, int, error)
	VisitStore(ctx context.Context, slug string) (domain.Store, []domain.Product, error)
	OwnerStores(ctx context.Context, ownerID string) ([]domain.Store, error)
	SavePage(ctx context.Context, storeID string, p domain.Page) (domain.Page, error)
	PublishedPage(ctx context.Context, slug, pageSlug string) (domain.Page, domain.Store, error)
	StoreAnalytics(ctx context.Context, storeID string) (domain.Store, []domain.Product, error)
	StoreSales(ctx context.Context, storeID string) (domain.StoreSales, error)
}

type ProductManager interface {
	CreateProduct(ctx context.Context, creatorID string, p domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, upd domain.ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ViewProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(context.Context, domain.ProductFilter) ([]domain.Product, int, error)
}

type OrderManager interface {
	PlaceOrder(context.Context, domain.Checkout) (domain.Order, domain.CheckoutRedirect, error)
	ReconcilePayment(context.Context, url.Values) (domain.Order, bool, error)
	Order(ctx context.Context, id string) (domain.Order, error)
	ViewOrder(ctx context.Context, actorID, id string) (domain.Order, error)
	ListOrders(context.Context, domain.OrderFilter) ([]domain.Order, int, error)
	StoreOrders(context.Context, domain.OrderFilter) ([]domain.Order, int, domain.OrderSummary, error)
	ChangeOrderStatus(ctx context.Context, id string, upd domain.StatusUpdate) (domain.Order, error)
	RefundOrder(ctx context.Context, id string, amount *decimal.Decimal, reason string) (domain.Order, decimal.Decimal, error)
	OrdersOverview(ctx context.Context, storeID string, tf domain.Timeframe) (domain.OrderSummary, []domain.DailyStat, error)
}

type AffiliateManager interface {
	EnableAffiliate(ctx context.Context, userID string) (domain.User, error)
	AffiliateDashboard(ctx context.Context, userID string) (domain.AffiliateDashboard, error)
	Referrals(context.Context, domain.ReferralFilter) ([]domain.ReferralReport, int, error)
	Commissions(context.Context, domain.CommissionFilter) ([]domain.Order, int, domain.CommissionSummary, error)
	CampaignLink(ctx context.Context, userID, campaign, source, medium string) (string, error)
	RequestPayout(ctx context.Context, userID string, amount decimal.Decimal, method string, details map[string]any) (domain.Payout, error)
	AffiliateAnalytics(ctx context.Context, userID string, tf domain.Timeframe) (domain.AffiliateAnalytics, error)
}
