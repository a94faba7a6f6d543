// Package crewflow runs gated pipelines: an ordered list of LLM tasks, some
// of which park the run until a human approves or rejects the proposed
// output, followed by an optional bearer-authenticated HTTP handoff.
//
// The root package exposes a Service façade wiring storage, the checkpoint
// gate and the executor registry:
//
//	srv := crewflow.New(crewflow.WithEmbedFS(&pipelines.FS))
//	rt := srv.Runtime()
//	_, _ = rt.LoadPipeline(ctx, pipelines.ValidationURL)
//	runID, _ := rt.Start(ctx, "validation", map[string]interface{}{"business_idea": "..."})
//	summary, _ := rt.Wait(ctx, runID) // suspended_at:approve_campaign_launch
//	_, _ = rt.Resolve(ctx, runID, &run.Decision{TaskID: summary.CurrentTaskID, Verdict: run.VerdictApprove})
package crewflow
