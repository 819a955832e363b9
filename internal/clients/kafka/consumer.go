package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"max.ks1230/expense-tracker/internal/entity/expense"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/reports"
)

type consumerConfig interface {
	producerConfig
	ConsumerGroup() string
}

type reportGenerator interface {
	Generate(ctx context.Context, userID int64, f expense.Filter) (reports.Report, error)
}

type reportSender interface {
	SendMessage(text string, userID int64) error
}

type reportCache interface {
	CacheReport(userID int64, filterKey string, report string) error
}

// Consumer drains the report request topic: for each request it runs
// the aggregation engine, caches the rendered text and delivers it to
// the requesting user.
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	generator     reportGenerator
	sender        reportSender
	cache         reportCache
}

func NewConsumer(cfg consumerConfig, generator reportGenerator, sender reportSender, cache reportCache) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.ConsumerGroup(), config)
	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.ReportsTopic(),
		generator:     generator,
		sender:        sender,
		cache:         cache,
	}, err
}

func (c *Consumer) StartConsuming(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("consume from %s", c.topic))
			}
		}
	}
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - setup")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - cleanup")
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		var req reports.Request
		err := json.Unmarshal(message.Value, &req)
		if err != nil {
			logger.Error("cannot unmarshal kafka message", zap.Error(err))
		} else {
			logger.Info(
				"received report request",
				zap.ByteString("key", message.Key),
				zap.Int64("userID", req.UserID),
				zap.String("filter", req.Filter.Key()),
			)
			c.processRequest(session.Context(), &req)
		}
		session.MarkMessage(message, "")
	}

	return nil
}

func (c *Consumer) processRequest(ctx context.Context, req *reports.Request) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "processReportRequest")
	defer span.Finish()

	report, err := c.generator.Generate(ctx, req.UserID, req.Filter)
	if err != nil {
		ext.Error.Set(span, true)
		logger.Error("failed to generate report", zap.Error(err))
		return
	}

	text := reports.Format(report)
	if err = c.cache.CacheReport(req.UserID, req.Filter.Key(), text); err != nil {
		logger.Warn("failed to cache report", zap.Error(err))
	}
	if err = c.sender.SendMessage(text, req.UserID); err != nil {
		ext.Error.Set(span, true)
		logger.Error("failed to send report", zap.Error(err))
	}
}
