package stubserver

import (
	"io"
	"strings"

	"ai-knowledge-client/internal/dto"
	"ai-knowledge-client/internal/mapper"
	"ai-knowledge-client/internal/pkg/logger"
	"ai-knowledge-client/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

const bannerMessage = "Agentic RAG Knowledge Assistant API"

var allowedExtensions = map[string]bool{"pdf": true, "md": true, "txt": true}

type IAgentController interface {
	RegisterRoutes(r fiber.Router, protect ...fiber.Handler)
	Root(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	ListDocuments(ctx *fiber.Ctx) error
	DeleteDocument(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	GetMemory(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
}

type agentController struct {
	store  *Store
	agent  *Agent
	logger logger.ILogger
}

func NewAgentController(store *Store, log logger.ILogger) IAgentController {
	return &agentController{
		store:  store,
		agent:  NewAgent(store),
		logger: log,
	}
}

// RegisterRoutes leaves the banner public; protect guards everything else.
func (c *agentController) RegisterRoutes(r fiber.Router, protect ...fiber.Handler) {
	r.Get("/", c.Root)

	h := r.Group("")
	for _, m := range protect {
		h.Use(m)
	}
	h.Post("/upload", c.Upload)
	h.Get("/documents", c.ListDocuments)
	h.Delete("/documents/:id", c.DeleteDocument)
	h.Post("/chat", c.Chat)
	h.Get("/memory/:type", c.GetMemory)
	h.Delete("/reset", c.Reset)
}

func (c *agentController) Root(ctx *fiber.Ctx) error {
	return ctx.JSON(dto.BannerResponse{Message: bannerMessage})
}

func (c *agentController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "file is required")
	}

	ext := mapper.FileExtension(header.Filename)
	if !allowedExtensions[ext] {
		return fiber.NewError(fiber.StatusBadRequest, "Unsupported file type. Allowed: pdf, md, txt")
	}

	f, err := header.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	// PDFs are indexed by their raw text; the stub does no layout extraction.
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Could not extract text from file")
	}

	doc := c.store.AddDocument(header.Filename, text)
	c.logger.Info("STUB", "Document indexed", map[string]interface{}{"id": doc.Id, "file": doc.Filename, "chunks": doc.Chunks})

	return ctx.JSON(dto.UploadDocumentResponse{
		Id:       doc.Id,
		Filename: doc.Filename,
		Chunks:   doc.Chunks,
		Status:   "indexed",
	})
}

func (c *agentController) ListDocuments(ctx *fiber.Ctx) error {
	return ctx.JSON(c.store.Documents())
}

func (c *agentController) DeleteDocument(ctx *fiber.Ctx) error {
	c.store.DeleteDocument(ctx.Params("id"))
	return ctx.JSON(dto.StatusResponse{Status: "deleted"})
}

func (c *agentController) Chat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res := c.agent.Respond(req)
	c.logger.Info("STUB", "Chat turn answered", map[string]interface{}{
		"session_id":     req.SessionId,
		"citations":      len(res.Citations),
		"memory_updates": len(res.MemoryUpdates),
	})
	return ctx.JSON(res)
}

func (c *agentController) GetMemory(ctx *fiber.Ctx) error {
	target := ctx.Params("type")
	if target != "user" && target != "company" {
		return fiber.NewError(fiber.StatusBadRequest, "memory_type must be 'user' or 'company'")
	}
	return ctx.JSON(dto.MemoryDocumentResponse{Type: target, Content: c.store.Memory(target)})
}

func (c *agentController) Reset(ctx *fiber.Ctx) error {
	c.store.Reset()
	c.logger.Info("STUB", "All data cleared", nil)
	return ctx.JSON(dto.StatusResponse{Status: "reset"})
}
