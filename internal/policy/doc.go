// Package policy holds the pure decision logic of the lifecycle controller.
//
// Nothing in this package mutates service state. The controller gathers the
// inputs (current status, the service's sleep policy, the latest host
// resource sample, performance history) and asks:
//
//   - EvaluateSleep: may this running service be put to sleep now?
//   - IsSleepCandidate: has this service been idle long enough for the
//     auto-sleep scanner to propose it?
//   - GetPriority: which wake tier does a service belong to?
//   - Predictor.Predict: how likely is a sleeping service to be needed soon?
//
// Resource thresholds are fractions in [0,1] while resource samples carry
// percentages, so samples are divided by 100 before comparison.
package policy
