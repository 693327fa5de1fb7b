package gims

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListScriptFolders returns all script folders.
func (c *Client) ListScriptFolders(ctx context.Context) ([]Folder, error) {
	return get[[]Folder](ctx, c, "/scripts/folder/", nil)
}

// CreateScriptFolder creates a script folder.
func (c *Client) CreateScriptFolder(ctx context.Context, params CreateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPost, "/scripts/folder/", params)
}

// UpdateScriptFolder applies a partial update to a script folder.
func (c *Client) UpdateScriptFolder(ctx context.Context, folderID int64, params UpdateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPatch, fmt.Sprintf("/scripts/folder/%d/", folderID), params)
}

// DeleteScriptFolder deletes a script folder.
func (c *Client) DeleteScriptFolder(ctx context.Context, folderID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/scripts/folder/%d/", folderID), nil, nil)
	return err
}

// ListScripts returns all scripts, optionally filtered by folder. The remote
// API has no folder filter, so filtering happens client-side.
func (c *Client) ListScripts(ctx context.Context, folderID *int64) ([]Script, error) {
	scripts, err := get[[]Script](ctx, c, "/scripts/script/", nil)
	if err != nil {
		return nil, err
	}
	if folderID == nil {
		return scripts, nil
	}
	filtered := scripts[:0]
	for _, s := range scripts {
		if s.FolderID != nil && *s.FolderID == *folderID {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// GetScript returns a script by ID, including its code.
func (c *Client) GetScript(ctx context.Context, scriptID int64) (Script, error) {
	return get[Script](ctx, c, fmt.Sprintf("/scripts/script/%d/", scriptID), nil)
}

// CreateScript creates a script.
func (c *Client) CreateScript(ctx context.Context, params CreateScriptParams) (Script, error) {
	return send[Script](ctx, c, http.MethodPost, "/scripts/script/", params)
}

// UpdateScript applies a partial update to a script.
func (c *Client) UpdateScript(ctx context.Context, scriptID int64, params UpdateScriptParams) (Script, error) {
	return send[Script](ctx, c, http.MethodPatch, fmt.Sprintf("/scripts/script/%d/", scriptID), params)
}

// DeleteScript deletes a script.
func (c *Client) DeleteScript(ctx context.Context, scriptID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/scripts/script/%d/", scriptID), nil, nil)
	return err
}

// SearchScriptCode searches script code server-side.
func (c *Client) SearchScriptCode(ctx context.Context, query string, caseSensitive, exactMatch bool) ([]Script, error) {
	params := url.Values{
		"search_code":    {query},
		"case_sensitive": {strconv.FormatBool(caseSensitive)},
		"exact_match":    {strconv.FormatBool(exactMatch)},
	}
	return get[[]Script](ctx, c, "/scripts/search_code/", params)
}

// ScriptLogURL returns the server-provided stream URL for a script's
// execution log. The endpoint answers either a bare JSON string or an
// object with a url field; both forms are accepted.
func (c *Client) ScriptLogURL(ctx context.Context, scriptID int64) (string, error) {
	raw, err := c.Request(ctx, http.MethodGet, fmt.Sprintf("/scripts/script_log_url/%d/", scriptID), nil, nil)
	if err != nil {
		return "", err
	}
	var plain string
	if json.Unmarshal(raw, &plain) == nil && plain != "" {
		return plain, nil
	}
	var wrapped struct {
		URL string `json:"url"`
	}
	if json.Unmarshal(raw, &wrapped) == nil && wrapped.URL != "" {
		return wrapped.URL, nil
	}
	return "", fmt.Errorf("gims: script log url response carried no url")
}

// ListDatasourceTypeFolders returns all datasource type folders.
func (c *Client) ListDatasourceTypeFolders(ctx context.Context) ([]Folder, error) {
	return get[[]Folder](ctx, c, "/datasource_types/folder/", nil)
}

// CreateDatasourceTypeFolder creates a datasource type folder.
func (c *Client) CreateDatasourceTypeFolder(ctx context.Context, params CreateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPost, "/datasource_types/folder/", params)
}

// UpdateDatasourceTypeFolder applies a partial update to a datasource type folder.
func (c *Client) UpdateDatasourceTypeFolder(ctx context.Context, folderID int64, params UpdateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPatch, fmt.Sprintf("/datasource_types/folder/%d/", folderID), params)
}

// DeleteDatasourceTypeFolder deletes a datasource type folder.
func (c *Client) DeleteDatasourceTypeFolder(ctx context.Context, folderID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/datasource_types/folder/%d/", folderID), nil, nil)
	return err
}

// ListDatasourceTypes returns all datasource types.
func (c *Client) ListDatasourceTypes(ctx context.Context) ([]DatasourceType, error) {
	return get[[]DatasourceType](ctx, c, "/datasource_types/ds_type/", nil)
}

// GetDatasourceType returns a datasource type by ID.
func (c *Client) GetDatasourceType(ctx context.Context, typeID int64) (DatasourceType, error) {
	return get[DatasourceType](ctx, c, fmt.Sprintf("/datasource_types/ds_type/%d/", typeID), nil)
}

// CreateDatasourceType creates a datasource type.
func (c *Client) CreateDatasourceType(ctx context.Context, params CreateDatasourceTypeParams) (DatasourceType, error) {
	return send[DatasourceType](ctx, c, http.MethodPost, "/datasource_types/ds_type/", params)
}

// UpdateDatasourceType applies a partial update to a datasource type.
func (c *Client) UpdateDatasourceType(ctx context.Context, typeID int64, params UpdateDatasourceTypeParams) (DatasourceType, error) {
	return send[DatasourceType](ctx, c, http.MethodPatch, fmt.Sprintf("/datasource_types/ds_type/%d/", typeID), params)
}

// DeleteDatasourceType deletes a datasource type.
func (c *Client) DeleteDatasourceType(ctx context.Context, typeID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/datasource_types/ds_type/%d/", typeID), nil, nil)
	return err
}

// ListDatasourceTypeProperties returns the properties of a datasource type.
func (c *Client) ListDatasourceTypeProperties(ctx context.Context, mdsTypeID int64) ([]Property, error) {
	params := url.Values{"mds_type_id": {strconv.FormatInt(mdsTypeID, 10)}}
	return get[[]Property](ctx, c, "/datasource_types/properties/", params)
}

// CreateDatasourceTypeProperty creates a property on a datasource type.
func (c *Client) CreateDatasourceTypeProperty(ctx context.Context, params CreatePropertyParams) (Property, error) {
	return send[Property](ctx, c, http.MethodPost, "/datasource_types/properties/", params)
}

// UpdateDatasourceTypeProperty applies a partial update to a property.
func (c *Client) UpdateDatasourceTypeProperty(ctx context.Context, propertyID int64, params UpdatePropertyParams) (Property, error) {
	return send[Property](ctx, c, http.MethodPatch, fmt.Sprintf("/datasource_types/properties/%d/", propertyID), params)
}

// DeleteDatasourceTypeProperty deletes a property.
func (c *Client) DeleteDatasourceTypeProperty(ctx context.Context, propertyID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/datasource_types/properties/%d/", propertyID), nil, nil)
	return err
}

// ListDatasourceTypeMethods returns the methods of a datasource type.
func (c *Client) ListDatasourceTypeMethods(ctx context.Context, mdsTypeID int64) ([]Method, error) {
	params := url.Values{"mds_type_id": {strconv.FormatInt(mdsTypeID, 10)}}
	return get[[]Method](ctx, c, "/datasource_types/method/", params)
}

// GetDatasourceTypeMethod returns a single method by ID.
func (c *Client) GetDatasourceTypeMethod(ctx context.Context, methodID int64) (Method, error) {
	return get[Method](ctx, c, fmt.Sprintf("/datasource_types/method/%d/", methodID), nil)
}

// CreateDatasourceTypeMethod creates a method on a datasource type.
func (c *Client) CreateDatasourceTypeMethod(ctx context.Context, params CreateMethodParams) (Method, error) {
	return send[Method](ctx, c, http.MethodPost, "/datasource_types/method/", params)
}

// UpdateDatasourceTypeMethod applies a partial update to a method.
func (c *Client) UpdateDatasourceTypeMethod(ctx context.Context, methodID int64, params UpdateMethodParams) (Method, error) {
	return send[Method](ctx, c, http.MethodPatch, fmt.Sprintf("/datasource_types/method/%d/", methodID), params)
}

// DeleteDatasourceTypeMethod deletes a method.
func (c *Client) DeleteDatasourceTypeMethod(ctx context.Context, methodID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/datasource_types/method/%d/", methodID), nil, nil)
	return err
}

// ListMethodParameters returns the parameters of a method.
func (c *Client) ListMethodParameters(ctx context.Context, methodID int64) ([]Parameter, error) {
	params := url.Values{"method_id": {strconv.FormatInt(methodID, 10)}}
	return get[[]Parameter](ctx, c, "/datasource_types/method_params/", params)
}

// CreateMethodParameter creates a parameter on a method.
func (c *Client) CreateMethodParameter(ctx context.Context, params CreateParameterParams) (Parameter, error) {
	return send[Parameter](ctx, c, http.MethodPost, "/datasource_types/method_params/", params)
}

// UpdateMethodParameter applies a partial update to a parameter.
func (c *Client) UpdateMethodParameter(ctx context.Context, parameterID int64, params UpdateParameterParams) (Parameter, error) {
	return send[Parameter](ctx, c, http.MethodPatch, fmt.Sprintf("/datasource_types/method_params/%d/", parameterID), params)
}

// DeleteMethodParameter deletes a parameter.
func (c *Client) DeleteMethodParameter(ctx context.Context, parameterID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/datasource_types/method_params/%d/", parameterID), nil, nil)
	return err
}

// ListActivatorTypeFolders returns all activator type folders. The folder
// endpoint lives under the singular activator_type segment, unlike the
// types themselves.
func (c *Client) ListActivatorTypeFolders(ctx context.Context) ([]Folder, error) {
	return get[[]Folder](ctx, c, "/activator_type/folder/", nil)
}

// CreateActivatorTypeFolder creates an activator type folder.
func (c *Client) CreateActivatorTypeFolder(ctx context.Context, params CreateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPost, "/activator_type/folder/", params)
}

// UpdateActivatorTypeFolder applies a partial update to an activator type folder.
func (c *Client) UpdateActivatorTypeFolder(ctx context.Context, folderID int64, params UpdateFolderParams) (Folder, error) {
	return send[Folder](ctx, c, http.MethodPatch, fmt.Sprintf("/activator_type/folder/%d/", folderID), params)
}

// DeleteActivatorTypeFolder deletes an activator type folder.
func (c *Client) DeleteActivatorTypeFolder(ctx context.Context, folderID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/activator_type/folder/%d/", folderID), nil, nil)
	return err
}

// ListActivatorTypes returns all activator types.
func (c *Client) ListActivatorTypes(ctx context.Context) ([]ActivatorType, error) {
	return get[[]ActivatorType](ctx, c, "/activator_types/activator_type/", nil)
}

// GetActivatorType returns an activator type by ID.
func (c *Client) GetActivatorType(ctx context.Context, typeID int64) (ActivatorType, error) {
	return get[ActivatorType](ctx, c, fmt.Sprintf("/activator_types/activator_type/%d/", typeID), nil)
}

// CreateActivatorType creates an activator type.
func (c *Client) CreateActivatorType(ctx context.Context, params CreateActivatorTypeParams) (ActivatorType, error) {
	return send[ActivatorType](ctx, c, http.MethodPost, "/activator_types/activator_type/", params)
}

// UpdateActivatorType applies a partial update to an activator type.
func (c *Client) UpdateActivatorType(ctx context.Context, typeID int64, params UpdateActivatorTypeParams) (ActivatorType, error) {
	return send[ActivatorType](ctx, c, http.MethodPatch, fmt.Sprintf("/activator_types/activator_type/%d/", typeID), params)
}

// DeleteActivatorType deletes an activator type.
func (c *Client) DeleteActivatorType(ctx context.Context, typeID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/activator_types/activator_type/%d/", typeID), nil, nil)
	return err
}

// ListActivatorTypeProperties returns activator type properties, optionally
// filtered by owning type. The remote endpoint has no filter, so filtering
// happens client-side.
func (c *Client) ListActivatorTypeProperties(ctx context.Context, activatorTypeID *int64) ([]Property, error) {
	props, err := get[[]Property](ctx, c, "/activator_types/properties/", nil)
	if err != nil {
		return nil, err
	}
	if activatorTypeID == nil {
		return props, nil
	}
	filtered := props[:0]
	for _, p := range props {
		if p.ActivatorTypeID == *activatorTypeID {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// CreateActivatorTypeProperty creates a property on an activator type.
func (c *Client) CreateActivatorTypeProperty(ctx context.Context, params CreatePropertyParams) (Property, error) {
	return send[Property](ctx, c, http.MethodPost, "/activator_types/properties/", params)
}

// UpdateActivatorTypeProperty applies a partial update to a property.
func (c *Client) UpdateActivatorTypeProperty(ctx context.Context, propertyID int64, params UpdatePropertyParams) (Property, error) {
	return send[Property](ctx, c, http.MethodPatch, fmt.Sprintf("/activator_types/properties/%d/", propertyID), params)
}

// DeleteActivatorTypeProperty deletes a property.
func (c *Client) DeleteActivatorTypeProperty(ctx context.Context, propertyID int64) error {
	_, err := c.Request(ctx, http.MethodDelete, fmt.Sprintf("/activator_types/properties/%d/", propertyID), nil, nil)
	return err
}

// ListValueTypes returns the value type reference table.
func (c *Client) ListValueTypes(ctx context.Context) ([]ValueType, error) {
	return get[[]ValueType](ctx, c, "/rest/value_types/", nil)
}

// ListPropertySections returns the property section reference table.
func (c *Client) ListPropertySections(ctx context.Context) ([]PropertySection, error) {
	return get[[]PropertySection](ctx, c, "/rest/property_sections/", nil)
}
