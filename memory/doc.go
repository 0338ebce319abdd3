// Package memory provides the long-term semantic memory of the companion.
//
// A Store owns five collections, each backed by a nearest-neighbor text
// index:
//   - conversations: past user/companion exchanges
//   - knowledge: facts about the user or the world
//   - emotion_events: emotional states and what triggered them
//   - goals_and_plans: goals with status and priority
//   - user_observations: behavioral observations about the user
//
// Recall blends semantic similarity with an exponential time decay and
// boosts emotionally intense memories, then merges the results of every
// queried collection into one ranking.
//
// Memory is advisory. The Store* and Recall* methods never fail: when the
// index is unavailable the Store runs disabled and every call is a no-op
// returning empty results. Callers that need to see failures use Put and
// Query, which return errors.
//
// Backends:
//   - store/chromem: chromem-go collections (persistent or in-memory)
//   - embedder/mock, embedder/ollama, embedder/onnx: text-to-vector
//   - embedder/cache: ristretto cache in front of any embedder
package memory
