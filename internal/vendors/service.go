package vendors

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

func (s *Service) Create(ctx context.Context, req CreateVendorRequest) (*Vendor, error) {
	vendor := Vendor{
		Name:      req.Name,
		GSTIN:     req.GSTIN,
		StateCode: req.StateCode,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		IsActive:  true,
		Notes:     req.Notes,
	}

	var id int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		var err error
		id, err = repo.Create(ctx, vendor)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateVendorRequest) (*Vendor, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
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
	if req.Address != nil {
		updates["address"] = *req.Address
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
		return nil, fmt.Errorf("update vendor: %w", err)
	}

	return s.repo.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int64) (*Vendor, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListVendorsRequest) ([]Vendor, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}
