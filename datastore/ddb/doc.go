/*
Package ddb provides a DynamoDB implementation of datastore.Model.

All collections share one table. Each item carries its collection name in
the EntityType attribute and its keys are expanded from the collection's
index map, registered with registry.RegisterIndexMap:

	registry.RegisterIndexMap("posts", map[string]string{
	    "PK":     "POST#{_id}",   // Becomes "POST#42"
	    "SK":     "METADATA",     // Static value
	    "GSI1PK": "POST",         // Constant: lists the collection via GSI1
	    "GSI1SK": "{createdAt}",  // Direct field value
	})

Reads by _id use GetItem when the primary key derives from the id alone.
Other reads query the configured GSI when the collection has a constant GSI
partition key, and scan the table otherwise. Conditions on the GSI sort key
attribute are pushed down; all other conditions, sorting and pagination are
evaluated client-side with memquery. Paged reads retry throttling errors
and report progress through storagemodels.ScanOptions:

	db := ddb.New(client, "app-table",
	    ddb.WithGSI(ddb.DefaultGSIConfigs["GSI1"]),
	    ddb.WithScanOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(3),
	        storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) {
	            log.Printf("Processed %d items", p.ItemsProcessed)
	        }),
	    ),
	)
	posts := db.Model("posts").WithRef("author", "users")

Updates are read-modify-write. An update changing key attributes moves
the item to its new key.
*/
package ddb
