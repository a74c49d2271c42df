// Package models defines the entities passed between the flickx layers.
//
// Catalog data:
//   - [MovieSummary] : identity used by list views (IMDb id, title, year, poster)
//   - [MovieDetail] : full metadata fetched on demand, never cached across views
//   - [StreamingLink] : provider link attached to a detail by the backend
//
// Account data:
//   - [Session] : the signed-in user, replaced wholesale on every transition
//   - [Profile] : sign-up metadata
//
// Outbound records:
//   - [Interaction] : viewed/liked/watchlist telemetry, not retained client-side
//   - [Feedback] : user feedback form
//
// [PersonalRecommendations] is the payload of the personalization route.
package models
