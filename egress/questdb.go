package egress

import (
	"context"
	"encoding/hex"
	"time"

	qdb "github.com/questdb/go-questdb-client/v3"
	"github.com/squadracorsepolito/cantranslate/message"
)

const questDBFrameTable = "can_frames"

type QuestDBConfig struct {
	Address       string
	AutoFlushRows int
	RetryTimeout  time.Duration
}

func NewDefaultQuestDBConfig() *QuestDBConfig {
	return &QuestDBConfig{
		Address:       "localhost:9000",
		AutoFlushRows: 75_000,
		RetryTimeout:  time.Second,
	}
}

// questDBSender owns the line sender shared by the QuestDB sinks.
type questDBSender struct {
	cfg *QuestDBConfig

	sender qdb.LineSender
}

func (s *questDBSender) init(ctx context.Context) error {
	sender, err := qdb.NewLineSender(ctx,
		qdb.WithHttp(),
		qdb.WithAddress(s.cfg.Address),
		qdb.WithAutoFlushRows(s.cfg.AutoFlushRows),
		qdb.WithRetryTimeout(s.cfg.RetryTimeout),
	)
	if err != nil {
		return err
	}

	s.sender = sender

	return nil
}

// close flushes the pending rows.
func (s *questDBSender) close() error {
	if s.sender == nil {
		return nil
	}
	return s.sender.Close(context.Background())
}

// QuestDBFrameSink inserts every frame as a row of the can_frames table.
type QuestDBFrameSink struct {
	questDBSender
}

func NewQuestDBFrameSink(cfg *QuestDBConfig) *QuestDBFrameSink {
	return &QuestDBFrameSink{
		questDBSender: questDBSender{cfg: cfg},
	}
}

func (s *QuestDBFrameSink) Name() string {
	return "quest_db_frames"
}

func (s *QuestDBFrameSink) Init(ctx context.Context) error {
	return s.init(ctx)
}

func (s *QuestDBFrameSink) Deliver(ctx context.Context, frame *message.Frame) error {
	rec := NewFrameRecord(frame)

	return s.sender.Table(questDBFrameTable).
		Symbol("source", rec.Source).
		Int64Column("can_id", int64(rec.CANID)).
		Int64Column("seq", int64(rec.Seq)).
		BoolColumn("extended", rec.Extended).
		BoolColumn("remote", rec.Remote).
		Int64Column("dlc", int64(rec.DLC)).
		StringColumn("data", hex.EncodeToString(rec.Data)).
		At(ctx, rec.Timestamp)
}

func (s *QuestDBFrameSink) Close() error {
	return s.close()
}

// QuestDBSignalSink inserts the decoded signals, one table per value type.
type QuestDBSignalSink struct {
	questDBSender
}

func NewQuestDBSignalSink(cfg *QuestDBConfig) *QuestDBSignalSink {
	return &QuestDBSignalSink{
		questDBSender: questDBSender{cfg: cfg},
	}
}

func (s *QuestDBSignalSink) Name() string {
	return "quest_db_signals"
}

func (s *QuestDBSignalSink) Init(ctx context.Context) error {
	return s.init(ctx)
}

func (s *QuestDBSignalSink) Deliver(ctx context.Context, batch *message.SignalBatch) error {
	timestamp := batch.GetTimestamp()

	for _, sig := range batch.Signals {
		var err error

		table := sig.Table
		switch table {
		case message.SignalTableFlag:
			err = s.sender.Table(table.String()).
				Symbol("name", sig.Name).
				Int64Column("can_id", int64(sig.CANID)).
				Int64Column("raw_value", sig.RawValue).
				BoolColumn("flag_value", sig.ValueFlag).
				At(ctx, timestamp)

		case message.SignalTableInt:
			err = s.sender.Table(table.String()).
				Symbol("name", sig.Name).
				Int64Column("can_id", int64(sig.CANID)).
				Int64Column("raw_value", sig.RawValue).
				Int64Column("integer_value", sig.ValueInt).
				At(ctx, timestamp)

		case message.SignalTableFloat:
			err = s.sender.Table(table.String()).
				Symbol("name", sig.Name).
				Int64Column("can_id", int64(sig.CANID)).
				Int64Column("raw_value", sig.RawValue).
				Float64Column("decimal_value", sig.ValueFloat).
				At(ctx, timestamp)

		case message.SignalTableEnum:
			err = s.sender.Table(table.String()).
				Symbol("name", sig.Name).
				Int64Column("can_id", int64(sig.CANID)).
				Int64Column("raw_value", sig.RawValue).
				StringColumn("enum_value", sig.ValueEnum).
				At(ctx, timestamp)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func (s *QuestDBSignalSink) Close() error {
	return s.close()
}
