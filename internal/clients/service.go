package clients

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req CreateClientRequest) (*Client, error) {
	client := Client{
		Name:             req.Name,
		GSTIN:            req.GSTIN,
		StateCode:        req.StateCode,
		Email:            req.Email,
		Phone:            req.Phone,
		BillingAddress:   req.BillingAddress,
		City:             req.City,
		State:            req.State,
		PostalCode:       req.PostalCode,
		PaymentTermsDays: req.PaymentTermsDays,
		IsActive:         true,
		Notes:            req.Notes,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, client)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateClientRequest) (*Client, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.GSTIN != nil {
		updates["gstin"] = *req.GSTIN
	}
	if req.StateCode != nil {
		updates["state_code"] = *req.StateCode
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.BillingAddress != nil {
		updates["billing_address"] = *req.BillingAddress
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.PaymentTermsDays != nil {
		updates["payment_terms_days"] = *req.PaymentTermsDays
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) == 0 {
		return existing, nil
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return repo.Update(ctx, id, updates)
	})
	if err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Client, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
