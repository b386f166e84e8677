package service

import (
	"errors"
	"fmt"
	"strings"

	"petale/internal/db"
	"petale/internal/entities"
	"petale/internal/repository"
	"petale/internal/utils"
)

var ErrInvalidProduct = errors.New("invalid product")

type ProductService struct {
	Repo *repository.ProductRepository
}

func NewProductService(repo *repository.ProductRepository) *ProductService {
	return &ProductService{Repo: repo}
}

func (s *ProductService) CreateProduct(req entities.ProductRequest) (*db.Product, error) {
	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.Slug = utils.SlugWithSuffix(product.Name)
	if err := s.Repo.CreateProduct(product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(id int, req entities.ProductRequest) (*db.Product, error) {
	existing, err := s.Repo.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("product %d not found", id)
	}

	product, err := productFromRequest(req)
	if err != nil {
		return nil, err
	}
	product.ID = id
	product.Slug = existing.Slug
	if product.Name != existing.Name {
		product.Slug = utils.SlugWithSuffix(product.Name)
	}
	if err := s.Repo.UpdateProduct(product); err != nil {
		return nil, err
	}
	return s.Repo.GetProductByID(id)
}

func (s *ProductService) GetProductBySlug(slug string) (*db.Product, error) {
	return s.Repo.GetProductBySlug(slug)
}

func (s *ProductService) ListProducts(category, status string) ([]db.Product, error) {
	return s.Repo.ListProducts(category, status)
}

func (s *ProductService) DeleteProduct(id int) error {
	return s.Repo.DeleteProduct(id)
}

func productFromRequest(req entities.ProductRequest) (*db.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price must be >= 0", ErrInvalidProduct)
	}
	if len(req.Images) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", ErrInvalidProduct)
	}

	capacityUnits := req.CapacityUnits
	if capacityUnits == 0 {
		capacityUnits = 1
	}
	if capacityUnits < 0.1 || capacityUnits > 100 {
		return nil, fmt.Errorf("%w: capacityUnits must be between 0.1 and 100", ErrInvalidProduct)
	}

	leadTimeDays := req.LeadTimeDays
	if leadTimeDays < 0 || leadTimeDays > 30 {
		return nil, fmt.Errorf("%w: leadTimeDays must be between 0 and 30", ErrInvalidProduct)
	}

	category := req.Category
	if category == "" {
		category = "Uncategorized"
	}
	status := req.Status
	if status == "" {
		status = "Active"
	}
	switch status {
	case "Active", "Inactive", "Out of Stock":
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, status)
	}
	discountType := req.DiscountType
	if discountType == "" {
		discountType = "none"
	}
	switch discountType {
	case "none", "percent", "amount":
	default:
		return nil, fmt.Errorf("%w: unknown discountType %q", ErrInvalidProduct, discountType)
	}

	preorderEnabled := true
	if req.PreorderEnabled != nil {
		preorderEnabled = *req.PreorderEnabled
	}

	product := &db.Product{
		Name:          name,
		Description:   strings.TrimSpace(req.Description),
		Price:         req.Price,
		Category:      category,
		Status:        status,
		DiscountType:  discountType,
		DiscountValue: req.DiscountValue,
		Images:        req.Images,
		MainImageIdx:  req.MainImageIdx,

		PreorderEnabled: preorderEnabled,
		LeadTimeDays:    leadTimeDays,
		CapacityUnits:   capacityUnits,
		DeliveryOnly:    true,

		IsBundle: req.IsBundle,
		Tags:     req.Tags,
	}
	for _, item := range req.BundleItems {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		product.BundleItems = append(product.BundleItems, db.BundleItem{
			Name:       item.Name,
			Image:      item.Image,
			Quantity:   qty,
			ProductRef: item.ProductRef,
		})
	}

	// Bundles without a hand-written description get a generated one from their contents.
	if product.IsBundle && product.Description == "" {
		product.Description = bundleDescription(product.BundleItems)
	}
	if !product.IsBundle && product.Description == "" {
		return nil, fmt.Errorf("%w: description is required", ErrInvalidProduct)
	}

	return product, nil
}

func bundleDescription(items []db.BundleItem) string {
	if len(items) == 0 {
		return "A curated box of our finest cookies."
	}
	var parts []string
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%v", item.Name, item.Quantity))
	}
	return fmt.Sprintf("A curated selection of our signature cookies: %s. Freshly baked, beautifully wrapped, and crafted with care.", strings.Join(parts, ", "))
}
