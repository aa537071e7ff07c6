package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/cwmaia/townhub/metrics"
	"github.com/cwmaia/townhub/pkg/gomailer"
	"github.com/cwmaia/townhub/pkg/kafka"
	"github.com/cwmaia/townhub/pkg/repositories"
	"github.com/cwmaia/townhub/pkg/types"
	"github.com/cwmaia/townhub/pkg/utils"
)

const dispatchedTopic = "notification.dispatched"

// HandleDispatchedEvents consumes dispatch events and emails the business
// owner a delivery summary. Town and admin sends have no owner mailbox and
// are skipped.
func HandleDispatchedEvents(ctx context.Context, mailer gomailer.Mailer, logger *zap.Logger, directory *repositories.DirectoryRepository) {
	c := kafka.NewConsumerFromEnv(dispatchedTopic, "email")
	defer c.Close()

	logger.Info("Starting Kafka consumer", zap.String("topic", dispatchedTopic))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutting down dispatch consumer", zap.String("topic", dispatchedTopic))
			return

		default:
			m, err := c.ReadFromKafka(ctx)
			if err != nil {
				logger.Error("Error reading Kafka message", zap.String("topic", dispatchedTopic), zap.Error(err))
				continue
			}

			var event types.NotificationDispatched
			if err := json.Unmarshal(m.Value, &event); err != nil {
				logger.Error("Failed to unmarshal dispatch event",
					zap.ByteString("raw", m.Value),
					zap.Error(err),
				)
				continue
			}
			if event.BusinessID == nil {
				continue
			}

			business, err := directory.GetBusiness(*event.BusinessID)
			if err != nil {
				logger.Error("Failed to load business for dispatch event",
					zap.String("business_id", event.BusinessID.String()),
					zap.Error(err),
				)
				continue
			}
			owner, err := directory.GetUser(business.OwnerID)
			if err != nil {
				logger.Error("Failed to load business owner",
					zap.String("owner_id", business.OwnerID.String()),
					zap.Error(err),
				)
				continue
			}

			subject := fmt.Sprintf("Delivery report: %s", event.Title)
			body := fmt.Sprintf(
				"Your notification %q reached %d of %d subscribers (%d device sends failed).",
				event.Title, event.Delivered, event.AudienceCount, event.Failed,
			)
			email := gomailer.NewEmail(
				utils.GetEnvDefault("MAIL_FROM", "noreply@townhub.app"),
				[]string{owner.Email},
				gomailer.WithSubject(subject),
				gomailer.WithText(body),
			)
			if err := mailer.Send(email); err != nil {
				metrics.EmailsSentTotal.WithLabelValues("failure").Inc()
				logger.Error("Failed to send summary email",
					zap.String("to", owner.Email),
					zap.Error(err),
				)
				continue
			}
			metrics.EmailsSentTotal.WithLabelValues("success").Inc()
			logger.Info("Summary email sent",
				zap.String("to", owner.Email),
				zap.String("notification_id", event.NotificationID.String()),
			)
		}
	}
}
