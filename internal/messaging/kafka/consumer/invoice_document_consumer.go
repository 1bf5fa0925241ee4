package consumer

import (
	"context"
	"encoding/json"
	"errors"

	"go-schoolops/internal/events"
	"go-schoolops/internal/invoice"
	invoiceerrors "go-schoolops/internal/invoice/errors"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumers use.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type DocumentGenerator interface {
	GenerateDocument(ctx context.Context, id string) (invoice.InvoiceResponse, error)
}

// ConsumeInvoiceGenerated renders and uploads the PDF for every generated
// invoice. Failed uploads stay uncommitted so the group redelivers them.
func ConsumeInvoiceGenerated(
	ctx context.Context,
	reader MessageReader,
	documents DocumentGenerator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.invoice_document")
	log.Info("invoice document consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("invoice document consumer stopped")
				return
			}
			log.Error("fetch invoice generated message failed", zap.Error(err))
			continue
		}

		var event events.InvoiceGeneratedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.InvoiceID == "" {
			log.Error("decode invoice generated event failed", zap.ByteString("value", msg.Value), zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		res, err := documents.GenerateDocument(ctx, event.InvoiceID)
		if err != nil {
			if errors.Is(err, invoiceerrors.ErrInvoiceNotFound) || errors.Is(err, invoiceerrors.ErrInvalidInvoiceID) {
				log.Warn("invoice for event no longer exists, skipping",
					zap.String("invoice_id", event.InvoiceID),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("generate invoice document failed",
				zap.String("invoice_id", event.InvoiceID),
				zap.String("invoice_number", event.InvoiceNumber),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit invoice generated message failed", zap.Error(err))
			continue
		}

		url := ""
		if res.DocumentURL != nil {
			url = *res.DocumentURL
		}
		log.Info("invoice document uploaded",
			zap.String("invoice_id", event.InvoiceID),
			zap.String("invoice_number", event.InvoiceNumber),
			zap.String("url", url),
		)
	}
}
