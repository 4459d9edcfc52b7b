// Package batch applies single-text PII detection and anonymization to
// structured records: maps from field name to a scalar string, a sequence
// of strings, or an arbitrary non-text value.
//
// The package owns traversal and result alignment only. The actual
// detection and anonymization engines are injected as DetectFunc and
// AnonymizeFunc; batch dispatches per-leaf calls, carries positional
// results from the detection pass to the anonymization pass, and
// reassembles output congruent with the input record. Non-text fields
// pass through untouched.
//
// Typical use:
//
//	detector := batch.NewBatchDetector(detectFn)
//	anonymizer := batch.NewBatchAnonymizer(anonymizeFn)
//
//	results := detector.DetectRecord(ctx, record, opts)
//	out, err := anonymizer.AnonymizeRecord(ctx, results, opts)
//
// Both components are stateless; every invocation is independent and safe
// to repeat. Resilience policies (retry, throttling) are layered onto the
// injected functions with the decorators in this package rather than
// built into the traversal.
package batch
