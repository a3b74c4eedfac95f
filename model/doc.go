// Package model defines the provider-agnostic abstractions used to talk to a
// language model and the Oracle built on top of them.
//
// Layers:
//   - Model: one generation call over normalized Request/Response shapes.
//     Provider adapters (gemini, openai, anthropic) implement it.
//   - Oracle: the two-phase exchange a conversation turn needs. GenerateReply
//     yields text or a single function call; SubmitFunctionResult feeds the
//     dispatch outcome back and yields the final text.
//   - MockModel: a scripted Model for tests.
package model
