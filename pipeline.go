// Package cantranslate runs the stages that turn Our Format lines
// into CAN frames and deliver them to the configured sinks.
package cantranslate

import (
	"context"
	"sync"
)

type Stage interface {
	Init(ctx context.Context) error
	Run(ctx context.Context)
	Stop()
}

type Pipeline struct {
	stages []Stage

	wg        *sync.WaitGroup
	isRunning bool
	stopOnce  sync.Once
}

func NewPipeline() *Pipeline {
	return &Pipeline{
		stages: []Stage{},

		wg:        &sync.WaitGroup{},
		isRunning: false,
	}
}

// AddStage adds a stage to the pipeline.
// Stages added after Run are ignored.
func (p *Pipeline) AddStage(stage Stage) {
	if p.isRunning {
		return
	}

	p.stages = append(p.stages, stage)
}

func (p *Pipeline) Init(ctx context.Context) error {
	for _, stage := range p.stages {
		if err := stage.Init(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Run starts every stage in its own goroutine and returns.
func (p *Pipeline) Run(ctx context.Context) {
	p.isRunning = true

	p.wg.Add(len(p.stages))

	for _, stage := range p.stages {
		go func() {
			defer p.wg.Done()
			stage.Run(ctx)
		}()
	}
}

// Wait blocks until every stage has returned from Run.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Done returns a channel closed when every stage has returned from Run.
func (p *Pipeline) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	return done
}

// Stop stops the stages in the order they were added and waits for them.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		for _, stage := range p.stages {
			stage.Stop()
		}

		p.wg.Wait()
	})
}
