/*
Package storagemodels defines the data structures shared by the gateway and
the persistence engines.

Key Types:

Document:
The raw attribute bag an engine returns for a stored record:

	doc := storagemodels.Document{"_id": "u1", "name": "Ada"}

Filter:
Parameters for find-family calls. Zero Skip and Limit are not applied, and
Sort is applied only when non-empty:

	filter := storagemodels.Filter{
	    Where: storagemodels.Document{"status": "active"},
	    Sort:  storagemodels.ParseSort("-createdAt"),
	    Limit: 25,
	}

Selector:
Target of an edit or delete, either by id or by filter:

	storagemodels.ByID("u1")
	storagemodels.ByFilter(storagemodels.Document{"status": "archived"})

Population:
Instruction for a query to load related documents in place of references.

ScanOptions:
Paging and retry settings for engines that read a table page by page:

	opts := []ScanOption{
	    WithPageSize(25),
	    WithMaxRetries(3),
	}
*/
package storagemodels
