package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stopwatch-io/stopwatch-ce/internal/email"
	"github.com/stopwatch-io/stopwatch-ce/internal/invoice"
)

// HandlePhaseBill handles GET /phases/:id/bill: the raw aggregation,
// without office metadata or rendering.
func (h *Handlers) HandlePhaseBill(c *gin.Context) {
	phaseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}
	bill, err := h.bills.BillForPhase(c.Request.Context(), phaseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bill)
}

// HandlePreviewInvoice handles GET /phases/:id/invoice: the assembled
// bill as JSON plus the rendered HTML, exactly what send would deliver.
func (h *Handlers) HandlePreviewInvoice(c *gin.Context) {
	phaseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}
	doc, err := h.invoices.Assemble(c.Request.Context(), phaseID, h.timer.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	html, err := invoice.RenderHTML(doc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice": doc, "html": string(html)})
}

// HandleSendInvoice handles POST /phases/:id/invoice/send: renders the
// invoice and mails it as an attachment to the given recipient.
func (h *Handlers) HandleSendInvoice(c *gin.Context) {
	phaseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}
	var req struct {
		To string `json:"to" form:"to"`
		CC string `json:"cc" form:"cc"`
	}
	if err := c.ShouldBind(&req); err != nil || email.TrimAddress(req.To) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient required"})
		return
	}

	doc, err := h.invoices.Assemble(c.Request.Context(), phaseID, h.timer.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	html, err := invoice.RenderHTML(doc)
	if err != nil {
		respondError(c, err)
		return
	}

	msg := &email.Message{
		To:             email.TrimAddress(req.To),
		CC:             email.TrimAddress(req.CC),
		Subject:        email.SubjectForPhase(doc.PhaseNumber),
		Body:           email.DefaultBody,
		Attachment:     html,
		AttachmentName: "invoice.html",
	}
	if err := h.mailer.Send(msg); err != nil {
		h.metrics.InvoiceSends.WithLabelValues("failure").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed"})
		return
	}
	h.metrics.InvoiceSends.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{"status": "sent", "to": msg.To})
}

// HandleExportInvoiceXLSX handles GET /phases/:id/invoice.xlsx.
func (h *Handlers) HandleExportInvoiceXLSX(c *gin.Context) {
	phaseID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phase id"})
		return
	}
	doc, err := h.invoices.Assemble(c.Request.Context(), phaseID, h.timer.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := invoice.RenderXLSX(doc)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("invoice-phase-%d.xlsx", doc.PhaseNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", out)
}
