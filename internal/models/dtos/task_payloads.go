package dtos

// PropertyPageTask is the payload of a fetch-property-page task. One task
// covers exactly one page; the worker enqueues the continuation itself so a
// crash between pages loses at most the in-flight page.
type PropertyPageTask struct {
	PropertyID string `json:"propertyId"`
	FromDate   string `json:"fromDate"`
	ToDate     string `json:"toDate"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
}

// PropertyIncrementalTask is the payload of a fetch-property-incremental
// task. Incremental fetches are a single bounded call, so there is no
// continuation state.
type PropertyIncrementalTask struct {
	PropertyID   string `json:"propertyId"`
	ModifiedFrom string `json:"modifiedFrom"`
}
