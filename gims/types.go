package gims

// Folder is a node in one of the three folder hierarchies (scripts,
// datasource types, activator types). Folders form a tree through
// ParentFolderID; a nil parent means the folder sits at the root.
type Folder struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	ParentFolderID *int64 `json:"parent_folder_id"`
}

// Script is an automation script stored in GIMS.
type Script struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	FolderID    *int64 `json:"folder_id"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// DatasourceType is a typed entity describing a kind of datasource. It owns
// properties and methods; the remote API exposes those through separate
// endpoints keyed by mds_type_id.
type DatasourceType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Folder      *int64 `json:"folder"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// ActivatorType is a typed entity with a single code body and properties.
type ActivatorType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	Folder      *int64 `json:"folder"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Property describes a configurable field of a typed entity. ValueTypeName
// and SectionName are resolved display names for the numeric references and
// are present on read responses only.
type Property struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Label           string `json:"label"`
	ValueTypeID     int64  `json:"value_type_id"`
	ValueTypeName   string `json:"value_type_name,omitempty"`
	SectionNameID   int64  `json:"section_name_id"`
	SectionName     string `json:"section_name,omitempty"`
	Description     string `json:"description,omitempty"`
	DefaultValue    string `json:"default_value"`
	IsRequired      bool   `json:"is_required"`
	IsHidden        bool   `json:"is_hidden"`
	IsInner         bool   `json:"is_inner"`
	MDSTypeID       int64  `json:"mds_type_id,omitempty"`
	ActivatorTypeID int64  `json:"activator_type_id,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// Method is a callable operation of a datasource type.
type Method struct {
	ID          int64  `json:"id"`
	MDSTypeID   int64  `json:"mds_type_id,omitempty"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Code        string `json:"code,omitempty"`
	Description string `json:"description,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// Parameter is an input or output parameter of a method. InputType is true
// for inputs and false for outputs.
type Parameter struct {
	ID            int64  `json:"id"`
	MethodID      int64  `json:"method_id,omitempty"`
	Label         string `json:"label"`
	ValueTypeID   int64  `json:"value_type_id"`
	ValueTypeName string `json:"value_type_name,omitempty"`
	InputType     bool   `json:"input_type"`
	DefaultValue  string `json:"default_value"`
	Description   string `json:"description,omitempty"`
	IsHidden      bool   `json:"is_hidden"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// ValueType is a reference table entry mapping a human-readable type name
// to the numeric id used by property and parameter payloads.
type ValueType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PropertySection is a reference table entry for property grouping.
type PropertySection struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateFolderParams holds the fields for creating a folder in any of the
// three hierarchies.
type CreateFolderParams struct {
	Name           string `json:"name"`
	ParentFolderID *int64 `json:"parent_folder_id,omitempty"`
}

// UpdateFolderParams is a partial update: nil fields are left untouched.
type UpdateFolderParams struct {
	Name           *string `json:"name,omitempty"`
	ParentFolderID *int64  `json:"parent_folder_id,omitempty"`
}

// CreateScriptParams holds the fields for creating a script.
type CreateScriptParams struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	FolderID *int64 `json:"folder_id,omitempty"`
}

// UpdateScriptParams is a partial update: nil fields are left untouched.
type UpdateScriptParams struct {
	Name     *string `json:"name,omitempty"`
	Code     *string `json:"code,omitempty"`
	FolderID *int64  `json:"folder_id,omitempty"`
}

// CreateDatasourceTypeParams holds the fields for creating a datasource type.
type CreateDatasourceTypeParams struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Folder      *int64 `json:"folder,omitempty"`
}

// UpdateDatasourceTypeParams is a partial update: nil fields are left
// untouched.
type UpdateDatasourceTypeParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Version     *string `json:"version,omitempty"`
	Folder      *int64  `json:"folder,omitempty"`
}

// CreateActivatorTypeParams holds the fields for creating an activator type.
type CreateActivatorTypeParams struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Folder      *int64 `json:"folder,omitempty"`
}

// UpdateActivatorTypeParams is a partial update: nil fields are left
// untouched.
type UpdateActivatorTypeParams struct {
	Name        *string `json:"name,omitempty"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
	Version     *string `json:"version,omitempty"`
	Folder      *int64  `json:"folder,omitempty"`
}

// CreatePropertyParams holds the fields for creating a property. Exactly one
// of MDSTypeID or ActivatorTypeID must be set, matching the owning entity.
type CreatePropertyParams struct {
	MDSTypeID       *int64 `json:"mds_type_id,omitempty"`
	ActivatorTypeID *int64 `json:"activator_type_id,omitempty"`
	Name            string `json:"name"`
	Label           string `json:"label"`
	ValueTypeID     int64  `json:"value_type_id"`
	SectionNameID   int64  `json:"section_name_id"`
	Description     string `json:"description"`
	DefaultValue    string `json:"default_value"`
	IsRequired      bool   `json:"is_required"`
	IsHidden        bool   `json:"is_hidden"`
}

// UpdatePropertyParams is a partial update: nil fields are left untouched.
type UpdatePropertyParams struct {
	Name          *string `json:"name,omitempty"`
	Label         *string `json:"label,omitempty"`
	ValueTypeID   *int64  `json:"value_type_id,omitempty"`
	SectionNameID *int64  `json:"section_name_id,omitempty"`
	Description   *string `json:"description,omitempty"`
	DefaultValue  *string `json:"default_value,omitempty"`
	IsRequired    *bool   `json:"is_required,omitempty"`
	IsHidden      *bool   `json:"is_hidden,omitempty"`
	IsInner       *bool   `json:"is_inner,omitempty"`
}

// CreateMethodParams holds the fields for creating a datasource type method.
type CreateMethodParams struct {
	MDSTypeID   int64  `json:"mds_type_id"`
	Name        string `json:"name"`
	Label       string `json:"label"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// UpdateMethodParams is a partial update: nil fields are left untouched.
type UpdateMethodParams struct {
	Name        *string `json:"name,omitempty"`
	Label       *string `json:"label,omitempty"`
	Code        *string `json:"code,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreateParameterParams holds the fields for creating a method parameter.
type CreateParameterParams struct {
	MethodID     int64  `json:"method_id"`
	Label        string `json:"label"`
	ValueTypeID  int64  `json:"value_type_id"`
	InputType    bool   `json:"input_type"`
	DefaultValue string `json:"default_value"`
	Description  string `json:"description"`
	IsHidden     bool   `json:"is_hidden"`
}

// UpdateParameterParams is a partial update: nil fields are left untouched.
type UpdateParameterParams struct {
	Label        *string `json:"label,omitempty"`
	ValueTypeID  *int64  `json:"value_type_id,omitempty"`
	InputType    *bool   `json:"input_type,omitempty"`
	DefaultValue *string `json:"default_value,omitempty"`
	Description  *string `json:"description,omitempty"`
	IsHidden     *bool   `json:"is_hidden,omitempty"`
}
