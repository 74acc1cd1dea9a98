package autotask

// Company represents an Autotask company (account).
type Company struct {
	ID                    int64              `json:"id,omitempty"                    yaml:"id,omitempty"`
	CompanyName           string             `json:"companyName,omitempty"           yaml:"company_name,omitempty"`
	CompanyNumber         string             `json:"companyNumber,omitempty"         yaml:"company_number,omitempty"`
	CompanyType           int                `json:"companyType,omitempty"           yaml:"company_type,omitempty"`
	Classification        int                `json:"classification,omitempty"        yaml:"classification,omitempty"`
	OwnerResourceID       int64              `json:"ownerResourceID,omitempty"       yaml:"owner_resource_id,omitempty"`
	ParentCompanyID       *int64             `json:"parentCompanyID,omitempty"       yaml:"parent_company_id,omitempty"`
	Phone                 string             `json:"phone,omitempty"                 yaml:"phone,omitempty"`
	Fax                   string             `json:"fax,omitempty"                   yaml:"fax,omitempty"`
	WebAddress            string             `json:"webAddress,omitempty"            yaml:"web_address,omitempty"`
	Address1              string             `json:"address1,omitempty"              yaml:"address1,omitempty"`
	Address2              string             `json:"address2,omitempty"              yaml:"address2,omitempty"`
	City                  string             `json:"city,omitempty"                  yaml:"city,omitempty"`
	State                 string             `json:"state,omitempty"                 yaml:"state,omitempty"`
	PostalCode            string             `json:"postalCode,omitempty"            yaml:"postal_code,omitempty"`
	CountryID             int                `json:"countryID,omitempty"             yaml:"country_id,omitempty"`
	IsActive              bool               `json:"isActive"                        yaml:"is_active"`
	CreateDate            *Time              `json:"createDate,omitempty"            yaml:"create_date,omitempty"`
	LastActivityDate      *Time              `json:"lastActivityDate,omitempty"      yaml:"last_activity_date,omitempty"`
	LastTrackedModifiedAt *Time              `json:"lastTrackedModifiedDateTime,omitempty" yaml:"last_modified,omitempty"`
	UserDefinedFields     []UserDefinedField `json:"userDefinedFields,omitempty"     yaml:"user_defined_fields,omitempty"`
}

// Contact represents a person at a company.
type Contact struct {
	ID                int64              `json:"id,omitempty"                yaml:"id,omitempty"`
	CompanyID         int64              `json:"companyID,omitempty"         yaml:"company_id,omitempty"`
	FirstName         string             `json:"firstName,omitempty"         yaml:"first_name,omitempty"`
	LastName          string             `json:"lastName,omitempty"          yaml:"last_name,omitempty"`
	Title             string             `json:"title,omitempty"             yaml:"title,omitempty"`
	EmailAddress      string             `json:"emailAddress,omitempty"      yaml:"email_address,omitempty"`
	Phone             string             `json:"phone,omitempty"             yaml:"phone,omitempty"`
	MobilePhone       string             `json:"mobilePhone,omitempty"       yaml:"mobile_phone,omitempty"`
	IsActive          int                `json:"isActive"                    yaml:"is_active"`
	PrimaryContact    bool               `json:"primaryContact,omitempty"    yaml:"primary_contact,omitempty"`
	CreateDate        *Time              `json:"createDate,omitempty"        yaml:"create_date,omitempty"`
	UserDefinedFields []UserDefinedField `json:"userDefinedFields,omitempty" yaml:"user_defined_fields,omitempty"`
}

// Resource represents an Autotask user (technician, agent).
type Resource struct {
	ID           int64  `json:"id,omitempty"           yaml:"id,omitempty"`
	UserName     string `json:"userName,omitempty"     yaml:"user_name,omitempty"`
	FirstName    string `json:"firstName,omitempty"    yaml:"first_name,omitempty"`
	LastName     string `json:"lastName,omitempty"     yaml:"last_name,omitempty"`
	Email        string `json:"email,omitempty"        yaml:"email,omitempty"`
	Title        string `json:"title,omitempty"        yaml:"title,omitempty"`
	ResourceType string `json:"resourceType,omitempty" yaml:"resource_type,omitempty"`
	IsActive     bool   `json:"isActive"               yaml:"is_active"`
	LicenseType  int    `json:"licenseType,omitempty"  yaml:"license_type,omitempty"`
}

// Ticket represents a service desk ticket.
type Ticket struct {
	ID                      int64              `json:"id,omitempty"                      yaml:"id,omitempty"`
	TicketNumber            string             `json:"ticketNumber,omitempty"            yaml:"ticket_number,omitempty"`
	Title                   string             `json:"title,omitempty"                   yaml:"title,omitempty"`
	Description             string             `json:"description,omitempty"             yaml:"description,omitempty"`
	CompanyID               int64              `json:"companyID,omitempty"               yaml:"company_id,omitempty"`
	ContactID               *int64             `json:"contactID,omitempty"               yaml:"contact_id,omitempty"`
	ContractID              *int64             `json:"contractID,omitempty"              yaml:"contract_id,omitempty"`
	AssignedResourceID      *int64             `json:"assignedResourceID,omitempty"      yaml:"assigned_resource_id,omitempty"`
	AssignedResourceRoleID  *int64             `json:"assignedResourceRoleID,omitempty"  yaml:"assigned_resource_role_id,omitempty"`
	QueueID                 *int64             `json:"queueID,omitempty"                 yaml:"queue_id,omitempty"`
	Status                  int                `json:"status,omitempty"                  yaml:"status,omitempty"`
	Priority                int                `json:"priority,omitempty"                yaml:"priority,omitempty"`
	IssueType               int                `json:"issueType,omitempty"               yaml:"issue_type,omitempty"`
	SubIssueType            int                `json:"subIssueType,omitempty"            yaml:"sub_issue_type,omitempty"`
	TicketType              int                `json:"ticketType,omitempty"              yaml:"ticket_type,omitempty"`
	Source                  int                `json:"source,omitempty"                  yaml:"source,omitempty"`
	DueDateTime             *Time              `json:"dueDateTime,omitempty"             yaml:"due_date_time,omitempty"`
	CreateDate              *Time              `json:"createDate,omitempty"              yaml:"create_date,omitempty"`
	CompletedDate           *Time              `json:"completedDate,omitempty"           yaml:"completed_date,omitempty"`
	LastActivityDate        *Time              `json:"lastActivityDate,omitempty"        yaml:"last_activity_date,omitempty"`
	EstimatedHours          float64            `json:"estimatedHours,omitempty"          yaml:"estimated_hours,omitempty"`
	ConfigurationItemID     *int64             `json:"configurationItemID,omitempty"     yaml:"configuration_item_id,omitempty"`
	UserDefinedFields       []UserDefinedField `json:"userDefinedFields,omitempty"       yaml:"user_defined_fields,omitempty"`
	ServiceLevelAgreementID *int64             `json:"serviceLevelAgreementID,omitempty" yaml:"sla_id,omitempty"`
}

// TicketNote is a note attached to a ticket.
type TicketNote struct {
	ID                 int64  `json:"id,omitempty"                 yaml:"id,omitempty"`
	TicketID           int64  `json:"ticketID,omitempty"           yaml:"ticket_id,omitempty"`
	Title              string `json:"title,omitempty"              yaml:"title,omitempty"`
	Description        string `json:"description,omitempty"        yaml:"description,omitempty"`
	NoteType           int    `json:"noteType,omitempty"           yaml:"note_type,omitempty"`
	Publish            int    `json:"publish,omitempty"            yaml:"publish,omitempty"`
	CreatorResourceID  *int64 `json:"creatorResourceID,omitempty"  yaml:"creator_resource_id,omitempty"`
	CreateDateTime     *Time  `json:"createDateTime,omitempty"     yaml:"create_date_time,omitempty"`
	LastActivityDate   *Time  `json:"lastActivityDate,omitempty"   yaml:"last_activity_date,omitempty"`
	ImpersonatorUserID *int64 `json:"impersonatorCreatorResourceID,omitempty" yaml:"impersonator_id,omitempty"`
}

// TimeEntry records time worked against a ticket or task.
type TimeEntry struct {
	ID              int64   `json:"id,omitempty"              yaml:"id,omitempty"`
	ResourceID      int64   `json:"resourceID,omitempty"      yaml:"resource_id,omitempty"`
	TicketID        *int64  `json:"ticketID,omitempty"        yaml:"ticket_id,omitempty"`
	TaskID          *int64  `json:"taskID,omitempty"          yaml:"task_id,omitempty"`
	RoleID          int64   `json:"roleID,omitempty"          yaml:"role_id,omitempty"`
	DateWorked      *Time   `json:"dateWorked,omitempty"      yaml:"date_worked,omitempty"`
	StartDateTime   *Time   `json:"startDateTime,omitempty"   yaml:"start_date_time,omitempty"`
	EndDateTime     *Time   `json:"endDateTime,omitempty"     yaml:"end_date_time,omitempty"`
	HoursWorked     float64 `json:"hoursWorked,omitempty"     yaml:"hours_worked,omitempty"`
	HoursToBill     float64 `json:"hoursToBill,omitempty"     yaml:"hours_to_bill,omitempty"`
	SummaryNotes    string  `json:"summaryNotes,omitempty"    yaml:"summary_notes,omitempty"`
	InternalNotes   string  `json:"internalNotes,omitempty"   yaml:"internal_notes,omitempty"`
	IsNonBillable   bool    `json:"isNonBillable"             yaml:"is_non_billable"`
	BillingCodeID   *int64  `json:"billingCodeID,omitempty"   yaml:"billing_code_id,omitempty"`
	ContractID      *int64  `json:"contractID,omitempty"      yaml:"contract_id,omitempty"`
	TimeEntryType   int     `json:"timeEntryType,omitempty"   yaml:"time_entry_type,omitempty"`
	CreateDateTime  *Time   `json:"createDateTime,omitempty"  yaml:"create_date_time,omitempty"`
	ShowOnInvoice   bool    `json:"showOnInvoice"             yaml:"show_on_invoice"`
	OffsetHours     float64 `json:"offsetHours,omitempty"     yaml:"offset_hours,omitempty"`
	BillingApproval *Time   `json:"billingApprovalDateTime,omitempty" yaml:"billing_approval,omitempty"`
}

// Contract represents a service agreement with a company.
type Contract struct {
	ID                      int64              `json:"id,omitempty"                      yaml:"id,omitempty"`
	ContractName            string             `json:"contractName,omitempty"            yaml:"contract_name,omitempty"`
	ContractNumber          string             `json:"contractNumber,omitempty"          yaml:"contract_number,omitempty"`
	CompanyID               int64              `json:"companyID,omitempty"               yaml:"company_id,omitempty"`
	ContactID               *int64             `json:"contactID,omitempty"               yaml:"contact_id,omitempty"`
	ContractType            int                `json:"contractType,omitempty"            yaml:"contract_type,omitempty"`
	ContractCategory        int                `json:"contractCategory,omitempty"        yaml:"contract_category,omitempty"`
	Status                  int                `json:"status,omitempty"                  yaml:"status,omitempty"`
	StartDate               *Time              `json:"startDate,omitempty"               yaml:"start_date,omitempty"`
	EndDate                 *Time              `json:"endDate,omitempty"                 yaml:"end_date,omitempty"`
	IsDefaultContract       bool               `json:"isDefaultContract"                 yaml:"is_default_contract"`
	EstimatedHours          float64            `json:"estimatedHours,omitempty"          yaml:"estimated_hours,omitempty"`
	EstimatedRevenue        float64            `json:"estimatedRevenue,omitempty"        yaml:"estimated_revenue,omitempty"`
	ServiceLevelAgreementID *int64             `json:"serviceLevelAgreementID,omitempty" yaml:"sla_id,omitempty"`
	Description             string             `json:"description,omitempty"             yaml:"description,omitempty"`
	UserDefinedFields       []UserDefinedField `json:"userDefinedFields,omitempty"       yaml:"user_defined_fields,omitempty"`
}

// Project represents a project.
type Project struct {
	ID                   int64              `json:"id,omitempty"                   yaml:"id,omitempty"`
	ProjectName          string             `json:"projectName,omitempty"          yaml:"project_name,omitempty"`
	ProjectNumber        string             `json:"projectNumber,omitempty"        yaml:"project_number,omitempty"`
	CompanyID            int64              `json:"companyID,omitempty"            yaml:"company_id,omitempty"`
	ContractID           *int64             `json:"contractID,omitempty"           yaml:"contract_id,omitempty"`
	ProjectLeadResource  *int64             `json:"projectLeadResourceID,omitempty" yaml:"project_lead_resource_id,omitempty"`
	Status               int                `json:"status,omitempty"               yaml:"status,omitempty"`
	Type                 int                `json:"type,omitempty"                 yaml:"type,omitempty"`
	StartDateTime        *Time              `json:"startDateTime,omitempty"        yaml:"start_date_time,omitempty"`
	EndDateTime          *Time              `json:"endDateTime,omitempty"          yaml:"end_date_time,omitempty"`
	CompletedPercentage  int                `json:"completedPercentage,omitempty"  yaml:"completed_percentage,omitempty"`
	EstimatedTime        float64            `json:"estimatedTime,omitempty"        yaml:"estimated_time,omitempty"`
	Description          string             `json:"description,omitempty"          yaml:"description,omitempty"`
	DepartmentID         *int64             `json:"departmentID,omitempty"         yaml:"department_id,omitempty"`
	UserDefinedFields    []UserDefinedField `json:"userDefinedFields,omitempty"    yaml:"user_defined_fields,omitempty"`
	LastActivityDateTime *Time              `json:"lastActivityDateTime,omitempty" yaml:"last_activity_date_time,omitempty"`
}

// Task is a unit of work inside a project.
type Task struct {
	ID                 int64   `json:"id,omitempty"                 yaml:"id,omitempty"`
	ProjectID          int64   `json:"projectID,omitempty"          yaml:"project_id,omitempty"`
	Title              string  `json:"title,omitempty"              yaml:"title,omitempty"`
	Description        string  `json:"description,omitempty"        yaml:"description,omitempty"`
	TaskNumber         string  `json:"taskNumber,omitempty"         yaml:"task_number,omitempty"`
	Status             int     `json:"status,omitempty"             yaml:"status,omitempty"`
	Priority           int     `json:"priority,omitempty"           yaml:"priority,omitempty"`
	TaskType           int     `json:"taskType,omitempty"           yaml:"task_type,omitempty"`
	AssignedResourceID *int64  `json:"assignedResourceID,omitempty" yaml:"assigned_resource_id,omitempty"`
	PhaseID            *int64  `json:"phaseID,omitempty"            yaml:"phase_id,omitempty"`
	StartDateTime      *Time   `json:"startDateTime,omitempty"      yaml:"start_date_time,omitempty"`
	EndDateTime        *Time   `json:"endDateTime,omitempty"        yaml:"end_date_time,omitempty"`
	EstimatedHours     float64 `json:"estimatedHours,omitempty"     yaml:"estimated_hours,omitempty"`
	RemainingHours     float64 `json:"remainingHours,omitempty"     yaml:"remaining_hours,omitempty"`
	BillingCodeID      *int64  `json:"billingCodeID,omitempty"      yaml:"billing_code_id,omitempty"`
	CreateDateTime     *Time   `json:"createDateTime,omitempty"     yaml:"create_date_time,omitempty"`
}

// ConfigurationItem is an installed product or asset.
type ConfigurationItem struct {
	ID                        int64              `json:"id,omitempty"                        yaml:"id,omitempty"`
	CompanyID                 int64              `json:"companyID,omitempty"                 yaml:"company_id,omitempty"`
	ProductID                 int64              `json:"productID,omitempty"                 yaml:"product_id,omitempty"`
	ReferenceTitle            string             `json:"referenceTitle,omitempty"            yaml:"reference_title,omitempty"`
	ReferenceNumber           string             `json:"referenceNumber,omitempty"           yaml:"reference_number,omitempty"`
	SerialNumber              string             `json:"serialNumber,omitempty"              yaml:"serial_number,omitempty"`
	ConfigurationItemType     *int               `json:"configurationItemType,omitempty"     yaml:"configuration_item_type,omitempty"`
	IsActive                  bool               `json:"isActive"                            yaml:"is_active"`
	InstallDate               *Time              `json:"installDate,omitempty"               yaml:"install_date,omitempty"`
	WarrantyExpirationDate    *Time              `json:"warrantyExpirationDate,omitempty"    yaml:"warranty_expiration_date,omitempty"`
	ContractID                *int64             `json:"contractID,omitempty"                yaml:"contract_id,omitempty"`
	Location                  string             `json:"location,omitempty"                  yaml:"location,omitempty"`
	Notes                     string             `json:"notes,omitempty"                     yaml:"notes,omitempty"`
	LastActivityPersonType    *int               `json:"lastActivityPersonType,omitempty"    yaml:"last_activity_person_type,omitempty"`
	RMMDeviceAuditHostname    string             `json:"rmmDeviceAuditHostname,omitempty"    yaml:"rmm_hostname,omitempty"`
	RMMDeviceAuditIPAddress   string             `json:"rmmDeviceAuditIPAddress,omitempty"   yaml:"rmm_ip_address,omitempty"`
	RMMDeviceAuditOperatingSy string             `json:"rmmDeviceAuditOperatingSystem,omitempty" yaml:"rmm_operating_system,omitempty"`
	UserDefinedFields         []UserDefinedField `json:"userDefinedFields,omitempty"         yaml:"user_defined_fields,omitempty"`
}

// Opportunity is a sales opportunity.
type Opportunity struct {
	ID                int64              `json:"id,omitempty"                yaml:"id,omitempty"`
	Title             string             `json:"title,omitempty"             yaml:"title,omitempty"`
	CompanyID         int64              `json:"companyID,omitempty"         yaml:"company_id,omitempty"`
	ContactID         *int64             `json:"contactID,omitempty"         yaml:"contact_id,omitempty"`
	OwnerResourceID   int64              `json:"ownerResourceID,omitempty"   yaml:"owner_resource_id,omitempty"`
	Stage             int                `json:"stage,omitempty"             yaml:"stage,omitempty"`
	Status            int                `json:"status,omitempty"            yaml:"status,omitempty"`
	Probability       int                `json:"probability,omitempty"       yaml:"probability,omitempty"`
	Amount            float64            `json:"amount,omitempty"            yaml:"amount,omitempty"`
	Cost              float64            `json:"cost,omitempty"              yaml:"cost,omitempty"`
	ProjectedCloseDay *Time              `json:"projectedCloseDate,omitempty" yaml:"projected_close_date,omitempty"`
	CreateDate        *Time              `json:"createDate,omitempty"        yaml:"create_date,omitempty"`
	Description       string             `json:"description,omitempty"       yaml:"description,omitempty"`
	UserDefinedFields []UserDefinedField `json:"userDefinedFields,omitempty" yaml:"user_defined_fields,omitempty"`
}
