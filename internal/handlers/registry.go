package handlers

// AppHandlers содержит все хэндлеры приложения.
type AppHandlers struct {
	DonationHandler *DonationHandler
	HealthHandler   *HealthHandler
}
