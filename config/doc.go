/*
Package config loads gateway configuration from YAML.

A configuration selects one engine (memory, mongo or dynamodb), its
connection settings, and the models to expose: collection, references used
for population, DynamoDB key templates and relation definitions.

Values may reference the environment as ${VAR}; a .env file is loaded when
present. The variables RECORDGATEWAY_ENGINE, LOG_LEVEL, MONGO_URI,
MONGO_DATABASE, AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
DDB_TABLE_NAME and DDB_ENDPOINT override the file.
*/
package config
