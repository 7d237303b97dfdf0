package handlers

import (
	"html"
	"strings"

	"github.com/ahmetcoskunkizilkaya/shopservice/internal/dto"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/models"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/render"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/services"
	"github.com/ahmetcoskunkizilkaya/shopservice/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LegalHandler shows the shop's active agreement to customers before they
// sign. Kiosk browsers get an HTML page; API clients get JSON.
type LegalHandler struct {
	db        *gorm.DB
	templates *services.TemplateService
}

func NewLegalHandler(db *gorm.DB, templates *services.TemplateService) *LegalHandler {
	return &LegalHandler{db: db, templates: templates}
}

func (h *LegalHandler) ActiveAgreement(c *fiber.Ctx) error {
	shopID, err := tenant.GetShopID(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "Shop not resolved")
	}

	var shop models.Shop
	if err := h.db.WithContext(c.UserContext()).First(&shop, "id = ?", shopID).Error; err != nil {
		return respondError(c, services.ErrShopNotFound)
	}

	tpl, err := h.templates.Active(c.UserContext(), shopID)
	if err != nil {
		return respondError(c, err)
	}

	// Signer placeholders stay blank until the agreement is signed.
	body := render.Substitute(tpl.Body, map[string]string{
		"shop_name":    shop.Name,
		"shop_address": shop.Address,
		"shop_phone":   shop.Phone,
		"jurisdiction": tpl.Jurisdiction,
	})

	if c.Accepts(fiber.MIMEApplicationJSON, fiber.MIMETextHTML) == fiber.MIMEApplicationJSON {
		return c.JSON(dto.ActiveAgreementResponse{
			ShopName:     shop.Name,
			Title:        tpl.Title,
			Body:         body,
			Jurisdiction: tpl.Jurisdiction,
		})
	}

	var paragraphs strings.Builder
	for _, p := range strings.Split(render.NormalizeText(body), "\n\n") {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paragraphs.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(p), "\n", "<br>") + "</p>\n")
	}

	title := html.EscapeString(tpl.Title)
	name := html.EscapeString(shop.Name)
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>` + title + ` - ` + name + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}.shop{color:#666}</style>
</head><body>
<h1>` + title + `</h1>
<p class="shop">` + name + `</p>
` + paragraphs.String() + `</body></html>`)
}
