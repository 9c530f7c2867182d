// Package refine drives an iterative draft, critique and revise loop over content produced by
// generative text models, and exposes the work in progress as an ordered stream of events.
//
// The root package holds the types shared by every layer:
//
//   - [Draft] and [Critique], the structured records recovered from model output
//   - [StreamEvent], the unit delivered to stream consumers
//   - [RoundExecutor] and [Subscription], the boundary to whatever produces the text
//   - [Model], the text generation boundary used by the default executor
//   - [Config] and [TerminationReason]
//   - hook interfaces and hook events, dispatched by the hooks package
//
// # Quick Start
//
//	llm, _ := openai.New(openai.WithToken(apiKey))
//	model := models.NewLCG(llm).WithModelName("gpt-4.1")
//
//	exec := crew.New(model, model)
//	ctrl := controller.New(exec, refine.DefaultConfig().WithThreshold(4))
//
//	// Stream every fragment as it is produced.
//	stream := bridge.Open(ctx, ctrl, "Canadian economic outlook for 2025")
//	defer stream.Close()
//	for ev, err := range stream.All(ctx) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("[%s] %s", ev.Source, ev.Payload)
//	}
//	result, err := stream.Result()
//
// # Packages
//
//   - node: order-preserving tagged tree for recovered data
//   - recovery: fallback-chain parser for near-JSON model output
//   - elempath: resolves critique element paths against a draft
//   - controller: the bounded iteration state machine
//   - bridge: turns a running controller into an ordered, cancellable event stream
//   - session: session ids, background tasks and broadcast for transports
//   - crew: default producer and critic round executor
//   - models: model backends (LangChainGo, openai-go, scripted)
package refine
