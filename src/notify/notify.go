// Package notify publishes sealed reports and announces them to operators.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"tracekeep/src/broker"
	"tracekeep/src/contracts"
	"tracekeep/src/logger"
	"tracekeep/src/store"
)

// Emitter publishes report records to a broker topic.
type Emitter struct {
	broker broker.Broker
	topic  string
}

// NewEmitter creates an Emitter. An empty topic uses contracts.TopicReports.
func NewEmitter(b broker.Broker, topic string) *Emitter {
	if topic == "" {
		topic = contracts.TopicReports
	}
	return &Emitter{broker: b, topic: topic}
}

// Emit publishes record keyed by its component.
func (e *Emitter) Emit(ctx context.Context, record contracts.ReportRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal report record: %w", err)
	}
	key := record.ComponentOrDefault(contracts.UnknownComponentKey)
	if err := e.broker.Publish(ctx, e.topic, key, data); err != nil {
		return fmt.Errorf("failed to publish report record: %w", err)
	}
	return nil
}

// Announcement returns the operator-facing lines for a new report.
func Announcement(record contracts.ReportRecord, program string) []string {
	source := "an unknown component"
	if record.HasComponent() {
		source = record.Component
	}
	return []string{
		fmt.Sprintf("A stack trace from %s was logged to %s", source, record.FilePath),
		fmt.Sprintf("Run `%s view latest` for more information.", program),
	}
}

// Agent consumes report records, announces them and indexes them.
type Agent struct {
	broker  broker.Broker
	index   store.Index
	logger  logger.Logger
	topic   string
	groupID string
	program string
}

// AgentOptions configures an Agent.
type AgentOptions struct {
	Topic   string
	GroupID string
	// Program is the command name used in announcements.
	Program string
}

// NewAgent creates a notify agent. A nil index only announces.
func NewAgent(b broker.Broker, index store.Index, log logger.Logger, opts AgentOptions) *Agent {
	if opts.Topic == "" {
		opts.Topic = contracts.TopicReports
	}
	if opts.GroupID == "" {
		opts.GroupID = "tracekeep-notify"
	}
	if opts.Program == "" {
		opts.Program = "tracekeep"
	}
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Agent{
		broker:  b,
		index:   index,
		logger:  log,
		topic:   opts.Topic,
		groupID: opts.GroupID,
		program: opts.Program,
	}
}

// Run subscribes and consumes until ctx is done or the subscription closes.
func (a *Agent) Run(ctx context.Context) error {
	msgChan, err := a.Subscribe(ctx)
	if err != nil {
		return err
	}
	return a.Consume(ctx, msgChan)
}

// Subscribe opens the agent's subscription. Records published after it
// returns are delivered on the channel, which Consume drains.
func (a *Agent) Subscribe(ctx context.Context) (<-chan broker.Message, error) {
	a.logger.Debug("[NotifyAgent] Subscribing to %s", a.topic)

	msgChan, err := a.broker.Subscribe(ctx, a.topic, a.groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", a.topic, err)
	}
	return msgChan, nil
}

// Consume announces and indexes records until ctx is done or msgChan closes.
// Closing the broker lets Consume finish the records already buffered.
func (a *Agent) Consume(ctx context.Context, msgChan <-chan broker.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				return nil
			}
			if err := a.handle(ctx, msg); err != nil {
				a.logger.Error("[NotifyAgent] %v", err)
			}
		}
	}
}

func (a *Agent) handle(ctx context.Context, msg broker.Message) error {
	var record contracts.ReportRecord
	if err := json.Unmarshal(msg.Value, &record); err != nil {
		return fmt.Errorf("failed to unmarshal report record: %w", err)
	}

	for _, line := range Announcement(record, a.program) {
		a.logger.Info("%s", line)
	}

	if a.index == nil {
		return nil
	}
	if err := a.index.Save(ctx, record); err != nil {
		return fmt.Errorf("failed to index report %s: %w", record.FileName, err)
	}
	return nil
}
