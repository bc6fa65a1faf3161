// Package telemetry provides observability instrumentation for joinery.
//
// The package combines structured logging (zerolog), distributed tracing
// (OpenTelemetry) and metrics (Prometheus) behind a single Telemetry value
// that the generator, the batch service and the policy engine accept as
// optional dependencies.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "0.3.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	go tel.StartMetricsServer(ctx)
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// Component loggers carry quotation and template context:
//
//	logger := tel.Logger.NewComponentLogger("generator")
//	logger = logger.WithQuotationID(qid).WithTemplate("KITCHEN_BASE", 1)
//	logger.Info("Generating cutlist")
//	logger.WithError(err).Error("Generation failed")
//
// Libraries that take a plain zerolog.Logger get it from Logger.Zerolog.
//
// # Distributed Tracing
//
// A batch produces one span per quotation with a child span per quote item
// and a policy evaluation span below that:
//
//	ctx, span := tel.Tracer.StartBatchSpan(ctx, qid, len(items))
//	defer span.End()
//
//	ctx, itemSpan := tel.Tracer.StartItemSpan(ctx, item.ID, product)
//	telemetry.RecordError(itemSpan, err)
//
// Supported exporters: otlp, stdout, none.
//
// # Metrics
//
// Metrics live in a private registry under the joinery namespace:
//
//	tel.Metrics.RecordGeneration("KITCHEN_BASE", "generated", d, 6)
//	tel.Metrics.RecordGenerationError("WARDROBE_2_SPLIT", "validation", "validate")
//	tel.Metrics.RecordBatchItem("fallback")
//	tel.Metrics.RecordPolicyViolation("part-fits-sheet", "error")
//
// Metrics are exposed via HTTP at /metrics (default :9090/metrics).
//
// # Context Helpers
//
//	ic := telemetry.StartOperation(ctx, "template.import",
//	    telemetry.AttrTemplateCode.String(code))
//	defer ic.End(err)
//
//	ic.Logger.Info("Importing template")
//
// # Configuration
//
// DevelopmentConfig logs at debug level with caller information.
// ProductionConfig logs JSON, serves metrics and samples 10% of traces to OTLP.
// The same settings are read from the telemetry section of joinery.yaml.
package telemetry
