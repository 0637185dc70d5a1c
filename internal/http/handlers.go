package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/aurad/internal/aura"
	"github.com/fyrsmithlabs/aurad/internal/events"
	"github.com/fyrsmithlabs/aurad/internal/logging"
	"github.com/fyrsmithlabs/aurad/internal/metadata"
	"github.com/fyrsmithlabs/aurad/internal/templatestore"
)

// handleCompress compresses one message and folds it into its
// conversation's accelerator.
func (s *Server) handleCompress(c echo.Context) error {
	var req CompressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}

	ctx := c.Request().Context()
	if req.ConversationID != "" {
		if !logging.ValidID(req.ConversationID) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation_id")
		}
		ctx = logging.WithConversationID(ctx, req.ConversationID)
	}

	result, err := s.aura.Compress(ctx, req.Text, req.TemplateID, req.Slots)
	if err != nil {
		return protocolError(err)
	}

	entries := s.aura.ExtractMetadata(result.Payload)
	sig := metadata.Signature(entries)

	procRes, convID := s.accel.Process(ctx, req.ConversationID, sig, func() (string, []metadata.Entry) {
		return req.Text, entries
	})

	// Texts the library could not template feed the discovery corpus.
	if s.discovery != nil && result.Metadata.Method != aura.MethodBinarySemantic.String() {
		s.discovery.Observe(req.Text)
	}

	s.publishPatternUsed(c, sig, entries, convID)

	return c.JSON(http.StatusOK, CompressResponse{
		Payload:        base64.StdEncoding.EncodeToString(result.Payload),
		Method:         result.Metadata.Method,
		OriginalSize:   result.Metadata.OriginalSize,
		CompressedSize: result.Metadata.CompressedSize,
		Ratio:          result.Metadata.Ratio,
		TemplateIDs:    result.Metadata.TemplateIDs,
		ConversationID: convID,
		CacheHit:       procRes.CacheHit,
		Signature:      sig,
	})
}

// publishPatternUsed emits a usage event for platform-wide frequency
// learning. Publish failures degrade to a warning; the compression
// response never depends on the broker.
func (s *Server) publishPatternUsed(c echo.Context, sig uint32, entries []metadata.Entry, convID string) {
	if s.publisher == nil || !s.publisher.Enabled() {
		return
	}

	ctx := c.Request().Context()
	event := events.PatternUsedEvent{
		Signature: sig,
		Count:     1,
		Timestamp: time.Now().UTC(),
	}
	if len(entries) > 0 {
		event.Kind = entries[0].Kind.String()
	}
	if cs, ok := s.accel.ConversationStats(convID); ok {
		event.ConversationType = string(cs.Type)
	}

	if err := s.publisher.PatternUsed(ctx, event); err != nil {
		s.logger.Warn(ctx, "pattern usage publish failed", zap.Error(err))
	}
}

// handleDecompress recovers text from a wire payload.
func (s *Server) handleDecompress(c echo.Context) error {
	var req DecompressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payload, herr := decodePayload(req.Payload)
	if herr != nil {
		return herr
	}

	result, err := s.aura.Decompress(c.Request().Context(), payload)
	if err != nil {
		return protocolError(err)
	}

	return c.JSON(http.StatusOK, DecompressResponse{
		Text:        result.Text,
		Method:      result.Metadata.Method,
		TemplateIDs: result.Metadata.TemplateIDs,
	})
}

// handleMetadata reports the metadata side-channel of a payload:
// decoded entries, their signature, the classified intent and the
// predicted compression ratio.
func (s *Server) handleMetadata(c echo.Context) error {
	var req MetadataRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payload, herr := decodePayload(req.Payload)
	if herr != nil {
		return herr
	}

	// Decompression both validates the payload and supplies the
	// original size the ratio prediction needs.
	result, err := s.aura.Decompress(c.Request().Context(), payload)
	if err != nil {
		return protocolError(err)
	}

	entries := s.aura.ExtractMetadata(payload)
	resp := MetadataResponse{
		Entries:        make([]MetadataEntry, 0, len(entries)),
		Signature:      metadata.Signature(entries),
		Intent:         string(metadata.ClassifyIntent(entries)),
		PredictedRatio: metadata.PredictRatio(entries, len(result.Text)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, MetadataEntry{
			TokenIndex: e.TokenIndex,
			Kind:       e.Kind.String(),
			Value:      e.Value,
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// handleListTemplates returns every registered template.
func (s *Server) handleListTemplates(c echo.Context) error {
	templates := s.aura.ListTemplates()
	return c.JSON(http.StatusOK, TemplatesResponse{
		Templates: templates,
		Count:     len(templates),
	})
}

// handleRegisterTemplate registers a template pattern. Registration is
// last-write-wins; when a store path is configured the non-builtin set
// is persisted as well.
func (s *Server) handleRegisterTemplate(c echo.Context) error {
	var req RegisterTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Pattern == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pattern field is required")
	}
	if req.ID > aura.MaxWireTemplateID {
		return echo.NewHTTPError(http.StatusBadRequest, "template id must be 0-255")
	}

	ctx := c.Request().Context()
	s.aura.RegisterTemplate(req.ID, req.Pattern)
	s.logger.Info(ctx, "template registered via api",
		zap.Uint16("template_id", req.ID))

	if s.config.StorePath != "" {
		if err := templatestore.Save(s.config.StorePath, s.aura.ListTemplates()); err != nil {
			s.logger.Warn(ctx, "template store save failed",
				zap.String("path", s.config.StorePath),
				zap.Error(err))
		}
	}

	return c.JSON(http.StatusCreated, RegisterTemplateResponse{
		ID:      req.ID,
		Pattern: req.Pattern,
	})
}

// handleStats reports live accelerator and template statistics.
func (s *Server) handleStats(c echo.Context) error {
	resp := StatsResponse{
		Accel:         s.accel.Stats(),
		TemplateCount: s.aura.TemplateCount(),
	}
	if s.discovery != nil {
		resp.Discovery = &DiscoveryStats{CorpusSize: s.discovery.CorpusSize()}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleConversationStats reports one live conversation.
func (s *Server) handleConversationStats(c echo.Context) error {
	id := c.Param("id")
	if !logging.ValidID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}

	stats, ok := s.accel.ConversationStats(id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return c.JSON(http.StatusOK, stats)
}

// handleEndConversation closes a conversation and folds its patterns
// into the platform aggregate.
func (s *Server) handleEndConversation(c echo.Context) error {
	id := c.Param("id")
	if !logging.ValidID(id) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}

	ctx := logging.WithConversationID(c.Request().Context(), id)
	stats, ok := s.accel.End(ctx, id)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}

	s.logger.Info(ctx, "conversation ended",
		zap.Int("messages", stats.MessageCount),
		zap.String("type", string(stats.Type)))

	return c.JSON(http.StatusOK, EndConversationResponse{Stats: stats})
}

// decodePayload decodes the base64 payload field shared by the
// protocol endpoints.
func decodePayload(encoded string) ([]byte, *echo.HTTPError) {
	if encoded == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "payload field is required")
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "payload must be base64")
	}
	return payload, nil
}

// protocolError maps codec errors onto HTTP statuses. Malformed input
// is the client's fault; a referenced template this node lacks is a
// 404; anything else stays a 500 without leaking detail.
func protocolError(err error) *echo.HTTPError {
	var notFound *aura.TemplateNotFoundError
	if errors.As(err, &notFound) {
		return echo.NewHTTPError(http.StatusNotFound, notFound.Error())
	}

	var (
		unknown    *aura.UnknownMethodError
		compress   *aura.CompressionFailedError
		decompress *aura.DecompressionFailedError
		invalid    *aura.InvalidPayloadError
	)
	if errors.As(err, &unknown) || errors.As(err, &compress) ||
		errors.As(err, &decompress) || errors.As(err, &invalid) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
