package service

import (
	"context"

	"ideawalker-core/internal/pkg/logger"
	"ideawalker-core/internal/repository/contract"
	"ideawalker-core/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

const activityDayLayout = "2006-01-02"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService feeds the activity counter from note events.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	thoughts   contract.ThoughtRepository
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	thoughts contract.ThoughtRepository,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		thoughts:   thoughts,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	evt, err := events.Decode(msg.Payload)
	if err != nil {
		cs.logger.Error("ActivityConsumer", "Failed to decode message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // undecodable: retrying will not help
		return
	}
	if evt.EventType() != events.NoteSaved {
		msg.Ack()
		return
	}

	day := evt.Timestamp().Local().Format(activityDayLayout)
	if err := cs.thoughts.RecordActivity(ctx, day); err != nil {
		cs.logger.Error("ActivityConsumer", "Failed to record activity", map[string]interface{}{
			"date":  day,
			"error": err.Error(),
		})
	}
	// the counter is best effort; a redelivery loop would stall blocking publishers
	msg.Ack()
}
