package services

import (
	"ngo_backend/internal/cache"
	"ngo_backend/internal/events"
	"ngo_backend/internal/repositories"
	"ngo_backend/internal/services/payment"
	"ngo_backend/internal/storage"
)

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	DonationService DonationService
	Inventory       InventoryService
	Gateway         payment.Gateway
	Publisher       events.Publisher
}

// Infrastructure - внешние зависимости, собранные в app
type Infrastructure struct {
	Gateway   payment.Gateway
	Publisher events.Publisher
	LinkCache cache.LinkCache
	Archive   storage.Archive
	Receipts  ReceiptGenerator
}

func NewServiceContainer(infra Infrastructure, cfg DonationServiceConfig) *ServiceContainer {
	// --- Репозитории ---
	txnRepo := repositories.NewPaymentTransactionRepository()
	donationRepo := repositories.NewDonationRepository()
	linkRepo := repositories.NewDonationLinkRepository()
	itemRepo := repositories.NewEventItemRepository()
	eventRepo := repositories.NewGatewayEventRepository()
	walletRepo := repositories.NewWalletRepository()

	// --- Сервисы ---
	inventory := NewInventoryService(itemRepo)
	materializer := NewDonationMaterializer(donationRepo, linkRepo, inventory, infra.Receipts)

	donationService := NewDonationService(DonationServiceDeps{
		TxnRepo:      txnRepo,
		DonationRepo: donationRepo,
		LinkRepo:     linkRepo,
		ItemRepo:     itemRepo,
		EventRepo:    eventRepo,
		WalletRepo:   walletRepo,
		Inventory:    inventory,
		Materializer: materializer,
		Gateway:      infra.Gateway,
		Publisher:    infra.Publisher,
		LinkCache:    infra.LinkCache,
		Archive:      infra.Archive,
	}, cfg)

	return &ServiceContainer{
		DonationService: donationService,
		Inventory:       inventory,
		Gateway:         infra.Gateway,
		Publisher:       infra.Publisher,
	}
}
