package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/config"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	registry *tenant.Registry,
	healthHandler *handlers.HealthHandler,
	submissionHandler *handlers.SubmissionHandler,
	legalHandler *handlers.LegalHandler,
	agreementHandler *handlers.AgreementHandler,
	workOrderHandler *handlers.WorkOrderHandler,
	noteHandler *handlers.NoteHandler,
	templateHandler *handlers.TemplateHandler,
	settingsHandler *handlers.SettingsHandler,
	fileHandler *handlers.FileHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no shop required)
	api.Get("/health", healthHandler.Check)

	// Signed downloads; the token is the credential
	api.Get("/files", fileHandler.Download)

	// Public kiosk routes, shop from the path (slug or id).
	// Writes get the stricter per-IP limit.
	publicLimit := limiter.New(limiter.Config{
		Max:               cfg.PublicRateLimit,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	public := api.Group("/shops/:shop", middleware.ShopFromPath(registry))
	public.Get("/agreement", legalHandler.ActiveAgreement)
	public.Post("/submissions", publicLimit, submissionHandler.Submit)
	public.Post("/work-orders/:id/sign", publicLimit, agreementHandler.Sign)

	// Staff routes (JWT required, shop from the token)
	staff := api.Group("/staff", middleware.StaffProtected(cfg), middleware.ShopFromStaff(registry))

	staff.Get("/work-orders", workOrderHandler.List)
	staff.Post("/work-orders", workOrderHandler.Create)
	staff.Get("/work-orders/export.xlsx", workOrderHandler.Export)
	staff.Get("/work-orders/:id", workOrderHandler.Get)
	staff.Put("/work-orders/:id/status", workOrderHandler.SetStatus)
	staff.Post("/work-orders/:id/pickup", workOrderHandler.Pickup)
	staff.Put("/items/:item/status", workOrderHandler.SetItemStatus)
	staff.Get("/customers/:id/work-orders", workOrderHandler.ListForCustomer)

	staff.Get("/work-orders/:id/notes", noteHandler.List)
	staff.Post("/work-orders/:id/notes", noteHandler.Add)

	staff.Get("/work-orders/:id/agreement", agreementHandler.Get)
	staff.Get("/work-orders/:id/agreement/url", agreementHandler.URL)
	staff.Post("/work-orders/:id/agreement/verify", agreementHandler.VerifyHash)
	staff.Get("/work-orders/:id/agreement/integrity", agreementHandler.VerifyStored)
	staff.Get("/agreements/lookup", agreementHandler.Lookup)

	// Owner-only management
	ownerOnly := middleware.OwnerRequired()
	staff.Get("/templates", ownerOnly, templateHandler.List)
	staff.Post("/templates", ownerOnly, templateHandler.Create)
	staff.Post("/templates/:id/activate", ownerOnly, templateHandler.Activate)
	staff.Get("/settings", ownerOnly, settingsHandler.Get)
	staff.Put("/settings", ownerOnly, settingsHandler.Update)
}
