package crewflow

import (
	"embed"

	"github.com/viant/crewflow/runtime/run"
	"github.com/viant/crewflow/service/approval"
	"github.com/viant/crewflow/service/dao"
	"github.com/viant/crewflow/service/event"
	"github.com/viant/crewflow/service/executor"
	"github.com/viant/crewflow/service/pipeline"
	"github.com/viant/crewflow/service/processor"
	"github.com/viant/crewflow/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises a Service.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithRunDAO sets the run store.
func WithRunDAO(runDAO dao.Service[string, run.Run]) Option {
	return func(s *Service) { s.runDAO = runDAO }
}

// WithApprovalService sets the checkpoint gate.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithEventService sets the service run notices are published to.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.events = service }
}

// WithRegistry sets the executor registry.
func WithRegistry(registry *executor.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithPipelineLoader sets the pipeline definition loader.
func WithPipelineLoader(loader *pipeline.Service) Option {
	return func(s *Service) { s.loader = loader }
}

// WithEmbedFS lets LoadPipeline resolve embed:// URLs against fs.
func WithEmbedFS(fs *embed.FS) Option {
	return func(s *Service) { s.loaderOptions = append(s.loaderOptions, pipeline.WithEmbedFS(fs)) }
}

// WithProcessorOptions lets the caller supply additional options passed to
// every processor.New call.
func WithProcessorOptions(opts ...processor.Option) Option {
	return func(s *Service) {
		s.processorOptions = append(s.processorOptions, opts...)
	}
}

// WithDryRun forces every executor onto the static variant.
func WithDryRun() Option {
	return func(s *Service) { s.dryRun = true }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// spans are written to stdout.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
