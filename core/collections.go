package core

// Collections of the document store. The counsellor collection has been spelled
// both "counsellors" and "counselors" in the past; "counselors" is canonical.
const (
	CollectionUsers         = "users"
	CollectionCounsellors   = "counselors"
	CollectionNotifications = "notifications"
	CollectionPosts         = "posts"
	CollectionMessages      = "messages"
	CollectionCategories    = "categories"
	CollectionSystem        = "system"
	CollectionIdentities    = "identities"

	// DriftedCollectionCounsellors is the misspelling that must never be written to.
	DriftedCollectionCounsellors = "counsellors"

	// SettingsDocumentID is the id of the singleton settings document in CollectionSystem.
	SettingsDocumentID = "settings"
)

// RequiredCollections must be reachable before the API starts serving.
var RequiredCollections = []string{
	CollectionUsers,
	CollectionCounsellors,
	CollectionNotifications,
	CollectionPosts,
	CollectionMessages,
	CollectionCategories,
	CollectionSystem,
}
