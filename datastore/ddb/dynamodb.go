/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordgateway/errors"
	"github.com/suparena/recordgateway/logger"
	"github.com/suparena/recordgateway/registry"
	"github.com/suparena/recordgateway/storagemodels"
)

// EntityTypeAttribute names the attribute holding the collection of an item.
const EntityTypeAttribute = "EntityType"

// Client is the part of the DynamoDB API the engine uses. *dynamodb.Client satisfies it.
type Client interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	Query(ctx context.Context, params *sdk.QueryInput, optFns ...func(*sdk.Options)) (*sdk.QueryOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error)
}

// ClientConfig holds what is needed to build a DynamoDB client.
// Without an access key the default AWS credential chain is used.
type ClientConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string
}

// NewDynamoDBClient initializes a DynamoDB client.
func NewDynamoDBClient(ctx context.Context, cc ClientConfig) (*sdk.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cc.Region)}
	if cc.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKeyID, cc.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sdk.NewFromConfig(cfg, func(o *sdk.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	})
	return client, nil
}

// Database is a single DynamoDB table holding any number of collections.
// Items carry their collection in EntityTypeAttribute and their keys are
// expanded from the collection's index map.
type Database struct {
	client    Client
	tableName string
	gsi       *GSIConfig
	scan      storagemodels.ScanOptions
	log       logger.Logger
}

// Option configures a Database
type Option func(*Database)

// WithGSI lists collections through a secondary index instead of a table scan.
// Key attribute names left empty are taken from the default configuration
// of the same index name, so WithGSI(GSIConfig{IndexName: "GSI1"}) is enough
// for the conventional layout.
func WithGSI(cfg GSIConfig) Option {
	return func(d *Database) {
		if def, ok := GetGSIConfig(cfg.IndexName); ok {
			if cfg.PartitionKeyName == "" {
				cfg.PartitionKeyName = def.PartitionKeyName
			}
			if cfg.SortKeyName == "" {
				cfg.SortKeyName = def.SortKeyName
			}
		}
		d.gsi = &cfg
	}
}

// WithScanOptions configures paging and retries of collection reads
func WithScanOptions(opts ...storagemodels.ScanOption) Option {
	return func(d *Database) {
		for _, opt := range opts {
			opt(&d.scan)
		}
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(d *Database) {
		d.log = l
	}
}

// New creates a Database over tableName.
func New(client Client, tableName string, opts ...Option) *Database {
	d := &Database{
		client:    client,
		tableName: tableName,
		scan:      storagemodels.DefaultScanOptions(),
		log:       logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log.Info("DynamoDB datastore ready for table %s", tableName)
	return d
}

// Model returns a handle on the named collection. The collection's index
// map must be registered with registry.RegisterIndexMap before use.
func (d *Database) Model(collection string) *Model {
	return &Model{
		db:         d,
		collection: collection,
		refs:       make(map[string]string),
	}
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// macroFields returns the attribute names referenced by a key template.
func macroFields(template string) []string {
	var fields []string
	for _, m := range macroPattern.FindAllStringSubmatch(template, -1) {
		fields = append(fields, m[1])
	}
	return fields
}

// resolvable reports whether every macro of template has a value in doc.
func resolvable(template string, doc storagemodels.Document) bool {
	for _, f := range macroFields(template) {
		if v, ok := doc[f]; !ok || v == nil {
			return false
		}
	}
	return true
}

func expandMacros(indexMap map[string]string, doc storagemodels.Document) (map[string]string, error) {
	av, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key input: %w", err)
	}

	res := make(map[string]string, len(indexMap))
	for fieldName, template := range indexMap {
		res[fieldName] = macroPattern.ReplaceAllStringFunc(template, func(macro string) string {
			val, ok := av[strings.Trim(macro, "{}")]
			if !ok {
				return ""
			}
			switch tv := val.(type) {
			case *types.AttributeValueMemberS:
				return tv.Value
			case *types.AttributeValueMemberN:
				return tv.Value
			case *types.AttributeValueMemberBOOL:
				return fmt.Sprintf("%v", tv.Value)
			default:
				// NULL, binary, sets and documents have no key form
				return ""
			}
		})
	}
	return res, nil
}

// buildKeyFromExpanded builds the primary key from the expanded index map.
func buildKeyFromExpanded(expanded map[string]string) (map[string]types.AttributeValue, error) {
	pk, okPK := expanded["PK"]
	sk, okSK := expanded["SK"]

	if !okPK || !okSK || pk == "" || sk == "" {
		return nil, fmt.Errorf("expanded index map missing valid PK or SK")
	}

	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}, nil
}

// Model is the datastore.Model of one collection of the table
type Model struct {
	db         *Database
	collection string
	refs       map[string]string
}

// WithRef declares that the references stored under path point into collection
func (m *Model) WithRef(path, collection string) *Model {
	m.refs[path] = collection
	return m
}

func indexMapFor(collection string) (map[string]string, error) {
	idx, ok := registry.GetIndexMap(collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrNoIndexMap, collection)
	}
	return idx, nil
}

// keyFor builds the primary key of doc. ok is false when the PK or SK
// template references attributes doc does not carry.
func keyFor(indexMap map[string]string, doc storagemodels.Document) (map[string]types.AttributeValue, bool, error) {
	if !resolvable(indexMap["PK"], doc) || !resolvable(indexMap["SK"], doc) {
		return nil, false, nil
	}
	expanded, err := expandMacros(indexMap, doc)
	if err != nil {
		return nil, false, err
	}
	key, err := buildKeyFromExpanded(expanded)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// toItem renders doc as a table item: its attributes, the expanded key
// attributes and the entity type. Secondary key attributes whose template
// cannot be resolved are left out, keeping the item out of that index.
func (m *Model) toItem(indexMap map[string]string, doc storagemodels.Document) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}

	expanded, err := expandMacros(indexMap, doc)
	if err != nil {
		return nil, err
	}
	for name, value := range expanded {
		if !resolvable(indexMap[name], doc) || value == "" {
			if name == "PK" || name == "SK" {
				return nil, errors.NewValidationError(name, fmt.Sprintf("key template %q cannot be expanded", indexMap[name]))
			}
			continue
		}
		item[name] = &types.AttributeValueMemberS{Value: value}
	}
	if _, ok := item["PK"]; !ok {
		return nil, errors.NewValidationError("PK", "index map of "+m.collection+" has no PK template")
	}
	if _, ok := item["SK"]; !ok {
		return nil, errors.NewValidationError("SK", "index map of "+m.collection+" has no SK template")
	}

	item[EntityTypeAttribute] = &types.AttributeValueMemberS{Value: m.collection}
	return item, nil
}

// fromItem strips the key attributes and entity type from an item.
func fromItem(indexMap map[string]string, item map[string]types.AttributeValue) (storagemodels.Document, error) {
	var doc map[string]any
	if err := attributevalue.UnmarshalMap(item, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	for name := range indexMap {
		delete(doc, name)
	}
	delete(doc, EntityTypeAttribute)
	return storagemodels.Document(doc), nil
}

func entityType(item map[string]types.AttributeValue) string {
	if s, ok := item[EntityTypeAttribute].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

// put writes doc. With mustNotExist the write fails with an
// AlreadyExistsError when an item with the same key is present.
func (m *Model) put(ctx context.Context, indexMap map[string]string, doc storagemodels.Document, mustNotExist bool) error {
	item, err := m.toItem(indexMap, doc)
	if err != nil {
		return err
	}

	input := &sdk.PutItemInput{
		TableName: &m.db.tableName,
		Item:      item,
	}
	if mustNotExist {
		input.ConditionExpression = aws.String("attribute_not_exists(PK)")
	}

	if _, err := m.db.client.PutItem(ctx, input); err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewAlreadyExistsError(m.collection, fmt.Sprint(doc.ID()))
		}
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// replace writes next over prev. When the primary key changed the new item
// is written first and the old one removed.
func (m *Model) replace(ctx context.Context, indexMap map[string]string, prev, next storagemodels.Document) error {
	oldKey, _, err := keyFor(indexMap, prev)
	if err != nil {
		return err
	}
	newKey, _, err := keyFor(indexMap, next)
	if err != nil {
		return err
	}

	moved := !sameKey(oldKey, newKey)
	if err := m.put(ctx, indexMap, next, moved); err != nil {
		return err
	}
	if moved && oldKey != nil {
		return m.deleteKey(ctx, oldKey)
	}
	return nil
}

func sameKey(a, b map[string]types.AttributeValue) bool {
	str := func(k map[string]types.AttributeValue, name string) string {
		if s, ok := k[name].(*types.AttributeValueMemberS); ok {
			return s.Value
		}
		return ""
	}
	return str(a, "PK") == str(b, "PK") && str(a, "SK") == str(b, "SK")
}

func (m *Model) deleteKey(ctx context.Context, key map[string]types.AttributeValue) error {
	_, err := m.db.client.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName: &m.db.tableName,
		Key:       key,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if stderrors.As(err, &cfe) {
			return errors.NewConditionFailedError("delete", err.Error())
		}
		return fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return nil
}
