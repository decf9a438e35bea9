package stamps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const recentTransactions = 5

type CustomerService struct {
	db     interf.CustomerStorage
	clock  interf.Clock
	ids    interf.IDGenerator
	signup sync.Mutex // проверка контакта и запись клиента одним шагом
	logger *zap.Logger
}

func NewCustomerService(db interf.CustomerStorage, clock interf.Clock, ids interf.IDGenerator, logger *zap.Logger) *CustomerService {
	return &CustomerService{db: db, clock: clock, ids: ids, logger: logger}
}

type SignUpRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Регистрация клиента: счетчики с нуля, свой персональный код
func (s *CustomerService) SignUp(ctx context.Context, req SignUpRequest) (model.Customer, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	switch {
	case req.Name == "":
		return model.Customer{}, model.NewValidationError("name", "is required")
	case req.Email == "":
		return model.Customer{}, model.NewValidationError("email", "is required")
	case !strings.Contains(req.Email, "@"):
		return model.Customer{}, model.NewValidationError("email", "is malformed")
	case req.Phone == "":
		return model.Customer{}, model.NewValidationError("phone", "is required")
	}

	s.signup.Lock()
	defer s.signup.Unlock()

	for _, contact := range []string{req.Email, req.Phone} {
		_, err := s.db.GetCustomerByContact(ctx, contact)
		if err == nil {
			return model.Customer{}, fmt.Errorf("%s: %w", contact, model.ErrDuplicateContact)
		}
		if !errors.Is(err, model.ErrCustomerNotFound) {
			return model.Customer{}, err
		}
	}

	now := s.clock.Now()
	id := s.ids.NewID("cust")
	customer := model.Customer{
		ID:         id,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		JoinedDate: now,
		LastVisit:  now,
		QRCode:     s.ids.CustomerCode(id),
	}
	err := s.db.AddCustomer(ctx, customer)
	if err != nil {
		s.logger.Error("Customers", zap.String("service", "SignUp"), zap.Error(err))
		return model.Customer{}, err
	}
	return customer, nil
}

// Поиск по email или телефону (вход без пароля)
func (s *CustomerService) FindByContact(ctx context.Context, contact string) (model.Customer, error) {
	contact = strings.TrimSpace(contact)
	if contact == "" {
		return model.Customer{}, model.NewValidationError("contact", "is required")
	}
	return s.db.GetCustomerByContact(ctx, contact)
}

func (s *CustomerService) Get(ctx context.Context, id string) (model.Customer, error) {
	return s.db.GetCustomer(ctx, id)
}

// Поиск по имени, email или телефону
func (s *CustomerService) List(ctx context.Context, search string) ([]model.Customer, error) {
	customers, err := s.db.GetCustomers(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return customers, nil
	}
	result := []model.Customer{}
	for _, c := range customers {
		if strings.Contains(strings.ToLower(c.Name), search) ||
			strings.Contains(strings.ToLower(c.Email), search) ||
			strings.Contains(c.Phone, search) {
			result = append(result, c)
		}
	}
	return result, nil
}

// customerId == "" - весь журнал
func (s *CustomerService) Transactions(ctx context.Context, customerId string) ([]model.Transaction, error) {
	if customerId == "" {
		return s.db.GetTransactions(ctx)
	}
	return s.db.GetCustomerTransactions(ctx, customerId)
}

func (s *CustomerService) CardConfig(ctx context.Context) (model.CardConfig, error) {
	return s.db.GetCardConfig(ctx)
}

// Изменение порога не трогает текущие штампы клиентов:
// клиент с stamps >= нового порога может получить награду вручную.
func (s *CustomerService) UpdateCardConfig(ctx context.Context, cfg model.CardConfig) (model.CardConfig, error) {
	cfg.BusinessName = strings.TrimSpace(cfg.BusinessName)
	if cfg.BusinessName == "" {
		return model.CardConfig{}, model.NewValidationError("businessName", "is required")
	}
	if cfg.StampsRequired < 1 {
		return model.CardConfig{}, model.NewValidationError("stampsRequired", "must be at least 1")
	}
	if strings.TrimSpace(cfg.RewardDescription) == "" {
		return model.CardConfig{}, model.NewValidationError("rewardDescription", "is required")
	}
	if cfg.ID == "" {
		cfg.ID = model.DefaultCardConfig().ID
	}
	err := s.db.UpdateCardConfig(ctx, cfg)
	if err != nil {
		return model.CardConfig{}, err
	}
	return cfg, nil
}

type Dashboard struct {
	Customer     model.Customer      `json:"customer"`
	Card         model.CardConfig    `json:"card"`
	State        string              `json:"state"`
	StampsToGo   int                 `json:"stampsToGo"`
	Transactions []model.Transaction `json:"transactions"`
	Unread       int                 `json:"unread"`
}

// Экран клиента: все части загружаются параллельно
func (s *CustomerService) Dashboard(ctx context.Context, customerId string) (*Dashboard, error) {
	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Customer, err = s.db.GetCustomer(gctx, customerId)
		return err
	})
	g.Go(func() error {
		var err error
		d.Card, err = s.db.GetCardConfig(gctx)
		return err
	})
	g.Go(func() error {
		tnxs, err := s.db.GetCustomerTransactions(gctx, customerId)
		if err != nil {
			return err
		}
		if len(tnxs) > recentTransactions {
			tnxs = tnxs[:recentTransactions]
		}
		d.Transactions = tnxs
		return nil
	})
	g.Go(func() error {
		notifications, err := s.db.GetNotifications(gctx, customerId)
		if err != nil {
			return err
		}
		for _, n := range notifications {
			if !n.Read {
				d.Unread++
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.State = Classify(d.Customer.Stamps, d.Card.StampsRequired).String()
	d.StampsToGo = max(d.Card.StampsRequired-d.Customer.Stamps, 0)
	return d, nil
}

// Сверка счетчиков клиента с журналом
func (s *CustomerService) Audit(ctx context.Context, customerId string) error {
	customer, err := s.db.GetCustomer(ctx, customerId)
	if err != nil {
		return err
	}
	tnxs, err := s.db.GetCustomerTransactions(ctx, customerId)
	if err != nil {
		return err
	}
	return Reconcile(customer, tnxs)
}
