package handler

// Route type
type Route string

const (
	// RouteList get the whole collection in insertion order
	RouteList Route = "list"
	// RouteGetByID get a single snippet by its id
	RouteGetByID Route = "getById"
	// RouteAdd create a snippet
	RouteAdd Route = "add"
	// RouteUpdate apply a partial update to a snippet
	RouteUpdate Route = "update"
	// RouteDelete remove a snippet
	RouteDelete Route = "delete"
	// RouteSearch find snippets by a case insensitive substring query
	RouteSearch Route = "search"
	// RouteGetAllTags get the distinct tags of the collection
	RouteGetAllTags Route = "getAllTags"
	// RouteExportData download the whole collection
	RouteExportData Route = "exportData"
	// RouteImportData replace the collection with exported data
	RouteImportData Route = "importData"
)
