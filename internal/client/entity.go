package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/internal/executor"
	athttp "github.com/fivetwenty-io/autotask-client/internal/http"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// EntityClient is the generic client behind every typed entity accessor.
type EntityClient[T any] struct {
	httpClient *athttp.Client
	exec       *executor.Executor
	cache      *autotask.CacheManager
	meta       autotask.EntityMeta
	parentID   int64
}

var (
	_ autotask.EntityClient[autotask.Entity] = (*EntityClient[autotask.Entity])(nil)
	_ autotask.PageFetcher[autotask.Entity]  = (*EntityClient[autotask.Entity])(nil)
)

// NewEntityClient creates a client for the entity described by meta.
func NewEntityClient[T any](httpClient *athttp.Client, exec *executor.Executor, cache *autotask.CacheManager, meta autotask.EntityMeta) *EntityClient[T] {
	return &EntityClient[T]{
		httpClient: httpClient,
		exec:       exec,
		cache:      cache,
		meta:       meta,
	}
}

// Name returns the entity name.
func (c *EntityClient[T]) Name() string {
	return c.meta.Name
}

// Under returns a copy whose writes go through the parent's path.
func (c *EntityClient[T]) Under(parentID int64) autotask.EntityClient[T] {
	scoped := *c
	scoped.parentID = parentID

	return &scoped
}

// Get retrieves one entity by id.
func (c *EntityClient[T]) Get(ctx context.Context, id int64) (*T, error) {
	err := c.check(autotask.OpGet, constants.OperationGet)
	if err != nil {
		return nil, err
	}

	if id <= 0 {
		return nil, autotask.NewConfigurationError(autotask.ErrEntityIDRequired.Error(), autotask.ErrEntityIDRequired)
	}

	endpoint := c.meta.Path + "/{id}"

	resp, err := c.send(ctx, endpoint, &athttp.Request{
		Method: http.MethodGet,
		Path:   c.meta.Path + "/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("getting %s %d: %w", c.meta.Name, id, err)
	}

	var result struct {
		Item *T `json:"item"`
	}

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", c.meta.Name, err)
	}

	// Autotask answers a missing id with 200 and a null item.
	if result.Item == nil {
		return nil, &autotask.Error{
			Kind:       autotask.KindNotFound,
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("%s %d not found", c.meta.Name, id),
			Endpoint:   endpoint,
			Method:     http.MethodGet,
			Timestamp:  time.Now(),
		}
	}

	return result.Item, nil
}

// Query returns the first page of results.
func (c *EntityClient[T]) Query(ctx context.Context, query *autotask.Query) (*autotask.ListResponse[T], error) {
	err := c.check(autotask.OpQuery, constants.OperationQuery)
	if err != nil {
		return nil, err
	}

	return c.FirstPage(ctx, query)
}

// FirstPage posts the query.
func (c *EntityClient[T]) FirstPage(ctx context.Context, query *autotask.Query) (*autotask.ListResponse[T], error) {
	normalized := query.Normalized(constants.DefaultMaxRecords, constants.MaxRecordsLimit)

	resp, err := c.send(ctx, c.meta.Path+"/query", &athttp.Request{
		Method: http.MethodPost,
		Path:   c.meta.Path + "/query",
		Body:   normalized,
	})
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", c.meta.Name, err)
	}

	return c.parseList(resp.Body)
}

// NextPage follows a nextPageUrl returned by a previous page.
func (c *EntityClient[T]) NextPage(ctx context.Context, nextPageURL string) (*autotask.ListResponse[T], error) {
	resp, err := c.send(ctx, c.meta.Path+"/query/next", &athttp.Request{
		Method: http.MethodGet,
		Path:   nextPageURL,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching next %s page: %w", c.meta.Name, err)
	}

	return c.parseList(resp.Body)
}

// QueryAll collects every page of results.
func (c *EntityClient[T]) QueryAll(ctx context.Context, query *autotask.Query) ([]T, error) {
	err := c.check(autotask.OpQuery, constants.OperationQuery)
	if err != nil {
		return nil, err
	}

	return autotask.FetchAllPages[T](ctx, c, query, nil)
}

// Iterate walks results one item at a time. Permission errors surface from
// the iterator's first fetch.
func (c *EntityClient[T]) Iterate(ctx context.Context, query *autotask.Query) *autotask.PaginationIterator[T] {
	return autotask.NewPaginationIterator[T](ctx, fetcherFunc[T]{
		first: c.Query,
		next:  c.NextPage,
	}, query)
}

// Count returns how many entities match query.
func (c *EntityClient[T]) Count(ctx context.Context, query *autotask.Query) (int64, error) {
	err := c.check(autotask.OpQuery, constants.OperationQuery)
	if err != nil {
		return 0, err
	}

	normalized := query.Normalized(constants.DefaultMaxRecords, constants.MaxRecordsLimit)
	normalized.MaxRecords = 0
	normalized.IncludeFields = nil

	resp, err := c.send(ctx, c.meta.Path+"/query/count", &athttp.Request{
		Method: http.MethodPost,
		Path:   c.meta.Path + "/query/count",
		Body:   normalized,
	})
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.meta.Name, err)
	}

	var result autotask.CountResponse

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return 0, fmt.Errorf("parsing %s count response: %w", c.meta.Name, err)
	}

	return result.QueryCount, nil
}

// Create creates item and returns its new id.
func (c *EntityClient[T]) Create(ctx context.Context, item *T) (int64, error) {
	err := c.check(autotask.OpCreate, constants.OperationCreate)
	if err != nil {
		return 0, err
	}

	path, err := c.writePath()
	if err != nil {
		return 0, err
	}

	return c.write(ctx, http.MethodPost, path, item, constants.OperationCreate)
}

// Update replaces item. The item must carry its id.
func (c *EntityClient[T]) Update(ctx context.Context, item *T) (int64, error) {
	err := c.check(autotask.OpUpdate, constants.OperationUpdate)
	if err != nil {
		return 0, err
	}

	path, err := c.writePath()
	if err != nil {
		return 0, err
	}

	return c.write(ctx, http.MethodPut, path, item, constants.OperationUpdate)
}

// Patch changes only the given fields of entity id.
func (c *EntityClient[T]) Patch(ctx context.Context, id int64, fields map[string]interface{}) (int64, error) {
	err := c.check(autotask.OpPatch, constants.OperationPatch)
	if err != nil {
		return 0, err
	}

	if id <= 0 {
		return 0, autotask.NewConfigurationError(autotask.ErrEntityIDRequired.Error(), autotask.ErrEntityIDRequired)
	}

	if len(fields) == 0 {
		return 0, autotask.NewConfigurationError(autotask.ErrEmptyPatch.Error(), autotask.ErrEmptyPatch)
	}

	body := make(map[string]interface{}, len(fields)+1)
	for key, value := range fields {
		body[key] = value
	}

	body["id"] = id

	path, err := c.writePath()
	if err != nil {
		return 0, err
	}

	return c.write(ctx, http.MethodPatch, path, body, constants.OperationPatch)
}

// Delete removes entity id.
func (c *EntityClient[T]) Delete(ctx context.Context, id int64) error {
	err := c.check(autotask.OpDelete, constants.OperationDelete)
	if err != nil {
		return err
	}

	if id <= 0 {
		return autotask.NewConfigurationError(autotask.ErrEntityIDRequired.Error(), autotask.ErrEntityIDRequired)
	}

	path, err := c.writePath()
	if err != nil {
		return err
	}

	endpoint := c.endpointTemplate() + "/{id}"

	_, err = c.send(ctx, endpoint, &athttp.Request{
		Method: http.MethodDelete,
		Path:   path + "/" + strconv.FormatInt(id, 10),
	})
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", c.meta.Name, id, err)
	}

	return nil
}

// EntityInfo describes what the entity supports.
func (c *EntityClient[T]) EntityInfo(ctx context.Context) (*autotask.EntityInformation, error) {
	var result autotask.EntityInformationResponse

	err := c.cachedGet(ctx, "entity-info", c.meta.Path+"/entityInformation", &result)
	if err != nil {
		return nil, fmt.Errorf("getting %s entity information: %w", c.meta.Name, err)
	}

	return &result.Info, nil
}

// FieldInfo lists the entity's fields, including picklist values.
func (c *EntityClient[T]) FieldInfo(ctx context.Context) ([]autotask.FieldInfo, error) {
	var result autotask.FieldInfoResponse

	err := c.cachedGet(ctx, "field-info", c.meta.Path+"/entityInformation/fields", &result)
	if err != nil {
		return nil, fmt.Errorf("getting %s field information: %w", c.meta.Name, err)
	}

	return result.Fields, nil
}

func (c *EntityClient[T]) cachedGet(ctx context.Context, prefix, path string, out interface{}) error {
	key := c.cache.GetCacheKey(prefix, c.meta.Name, nil)

	if c.cache.GetJSON(ctx, key, out) == nil {
		return nil
	}

	resp, err := c.send(ctx, path, &athttp.Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return err
	}

	err = json.Unmarshal(resp.Body, out)
	if err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}

	// A failed cache write only costs a refetch.
	_ = c.cache.Set(ctx, key, resp.Body, constants.FieldInfoCacheTTL)

	return nil
}

func (c *EntityClient[T]) write(ctx context.Context, method, path string, body interface{}, operation string) (int64, error) {
	resp, err := c.send(ctx, c.endpointTemplate(), &athttp.Request{
		Method: method,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", operation, c.meta.Name, err)
	}

	var result autotask.ItemIDResponse

	err = json.Unmarshal(resp.Body, &result)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %s response: %w", operation, c.meta.Name, err)
	}

	return result.ItemID, nil
}

func (c *EntityClient[T]) send(ctx context.Context, endpoint string, req *athttp.Request) (*athttp.Response, error) {
	return c.exec.Execute(ctx, func(ctx context.Context) (*autotask.ResponseEnvelope, error) {
		return c.httpClient.Do(ctx, req)
	}, endpoint, req.Method)
}

func (c *EntityClient[T]) parseList(body []byte) (*autotask.ListResponse[T], error) {
	var result autotask.ListResponse[T]

	err := json.Unmarshal(body, &result)
	if err != nil {
		return nil, fmt.Errorf("parsing %s list response: %w", c.meta.Name, err)
	}

	return &result, nil
}

// check rejects operations the entity does not allow before anything is sent.
func (c *EntityClient[T]) check(op autotask.Operation, name string) error {
	if c.meta.Operations.Has(op) {
		return nil
	}

	return autotask.NewConfigurationError(
		fmt.Sprintf("%s does not support %s (allowed: %s)", c.meta.Name, name, c.meta.Operations),
		autotask.ErrOperationNotAllowed,
	)
}

// writePath is the collection path writes go to. Child entities are only
// writable through their parent.
func (c *EntityClient[T]) writePath() (string, error) {
	if !c.meta.IsChild() {
		return c.meta.Path, nil
	}

	if c.parentID <= 0 {
		return "", autotask.NewConfigurationError(
			fmt.Sprintf("%s: %s", autotask.ErrParentIDRequired.Error(), c.meta.Name),
			autotask.ErrParentIDRequired,
		)
	}

	return c.parentPath() + "/" + strconv.FormatInt(c.parentID, 10) + "/" + c.meta.ChildPath, nil
}

func (c *EntityClient[T]) endpointTemplate() string {
	if c.meta.IsChild() {
		return c.parentPath() + "/{parentId}/" + c.meta.ChildPath
	}

	return c.meta.Path
}

func (c *EntityClient[T]) parentPath() string {
	parent, ok := autotask.LookupEntity(c.meta.Parent)
	if !ok {
		return c.meta.Parent
	}

	return parent.Path
}

// fetcherFunc adapts two functions to autotask.PageFetcher.
type fetcherFunc[T any] struct {
	first func(ctx context.Context, query *autotask.Query) (*autotask.ListResponse[T], error)
	next  func(ctx context.Context, nextPageURL string) (*autotask.ListResponse[T], error)
}

func (f fetcherFunc[T]) FirstPage(ctx context.Context, query *autotask.Query) (*autotask.ListResponse[T], error) {
	return f.first(ctx, query)
}

func (f fetcherFunc[T]) NextPage(ctx context.Context, nextPageURL string) (*autotask.ListResponse[T], error) {
	return f.next(ctx, nextPageURL)
}
