package autotask

import (
	"sort"
	"strings"
)

// Operation is a bit set of what an entity endpoint accepts.
type Operation uint8

const (
	OpGet Operation = 1 << iota
	OpQuery
	OpCreate
	OpUpdate
	OpPatch
	OpDelete
)

// Common operation sets.
const (
	ReadOnly   = OpGet | OpQuery
	ReadWrite  = ReadOnly | OpCreate | OpUpdate | OpPatch
	FullAccess = ReadWrite | OpDelete
)

// Has reports whether all operations in other are allowed.
func (o Operation) Has(other Operation) bool {
	return o&other == other
}

// String lists the allowed operations.
func (o Operation) String() string {
	names := []struct {
		op   Operation
		name string
	}{
		{OpGet, "get"},
		{OpQuery, "query"},
		{OpCreate, "create"},
		{OpUpdate, "update"},
		{OpPatch, "patch"},
		{OpDelete, "delete"},
	}

	var parts []string

	for _, entry := range names {
		if o.Has(entry.op) {
			parts = append(parts, entry.name)
		}
	}

	return strings.Join(parts, ",")
}

// EntityMeta is one row of the entity table. Child entities are written
// through <Parent>/{parentId}/<ChildPath> and read through Path.
type EntityMeta struct {
	Name       string
	Path       string
	Parent     string
	ChildPath  string
	Operations Operation
}

// IsChild reports whether writes go through a parent entity.
func (m EntityMeta) IsChild() bool {
	return m.Parent != ""
}

//nolint:gochecknoglobals // Static entity table
var entityTable = []EntityMeta{
	{Name: "Companies", Path: "Companies", Operations: ReadWrite},
	{Name: "CompanyLocations", Path: "CompanyLocations", Parent: "Companies", ChildPath: "Locations", Operations: FullAccess},
	{Name: "CompanyNotes", Path: "CompanyNotes", Parent: "Companies", ChildPath: "Notes", Operations: ReadWrite},
	{Name: "CompanySiteConfigurations", Path: "CompanySiteConfigurations", Parent: "Companies", ChildPath: "SiteConfigurations", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "Contacts", Path: "Contacts", Operations: FullAccess},
	{Name: "ContactGroups", Path: "ContactGroups", Operations: FullAccess},
	{Name: "Resources", Path: "Resources", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "ResourceRoles", Path: "ResourceRoles", Operations: ReadOnly},
	{Name: "Roles", Path: "Roles", Operations: ReadWrite},
	{Name: "Departments", Path: "Departments", Operations: ReadWrite},
	{Name: "Tickets", Path: "Tickets", Operations: ReadWrite},
	{Name: "TicketNotes", Path: "TicketNotes", Parent: "Tickets", ChildPath: "Notes", Operations: ReadWrite},
	{Name: "TicketAttachments", Path: "TicketAttachments", Parent: "Tickets", ChildPath: "Attachments", Operations: ReadOnly | OpCreate | OpDelete},
	{Name: "TicketChecklistItems", Path: "TicketChecklistItems", Parent: "Tickets", ChildPath: "ChecklistItems", Operations: FullAccess},
	{Name: "TicketSecondaryResources", Path: "TicketSecondaryResources", Parent: "Tickets", ChildPath: "SecondaryResources", Operations: ReadOnly | OpCreate | OpDelete},
	{Name: "TicketCategories", Path: "TicketCategories", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "ServiceCalls", Path: "ServiceCalls", Operations: FullAccess},
	{Name: "TimeEntries", Path: "TimeEntries", Operations: FullAccess},
	{Name: "Contracts", Path: "Contracts", Operations: ReadWrite},
	{Name: "ContractServices", Path: "ContractServices", Parent: "Contracts", ChildPath: "Services", Operations: ReadWrite},
	{Name: "ContractBlocks", Path: "ContractBlocks", Parent: "Contracts", ChildPath: "Blocks", Operations: ReadWrite},
	{Name: "ContractCharges", Path: "ContractCharges", Parent: "Contracts", ChildPath: "Charges", Operations: FullAccess},
	{Name: "ContractMilestones", Path: "ContractMilestones", Parent: "Contracts", ChildPath: "Milestones", Operations: FullAccess},
	{Name: "Projects", Path: "Projects", Operations: ReadWrite},
	{Name: "Tasks", Path: "Tasks", Parent: "Projects", ChildPath: "Tasks", Operations: FullAccess},
	{Name: "Phases", Path: "Phases", Parent: "Projects", ChildPath: "Phases", Operations: ReadWrite},
	{Name: "ProjectNotes", Path: "ProjectNotes", Parent: "Projects", ChildPath: "Notes", Operations: ReadWrite},
	{Name: "ProjectCharges", Path: "ProjectCharges", Parent: "Projects", ChildPath: "Charges", Operations: FullAccess},
	{Name: "ConfigurationItems", Path: "ConfigurationItems", Operations: FullAccess},
	{Name: "ConfigurationItemTypes", Path: "ConfigurationItemTypes", Operations: FullAccess},
	{Name: "Opportunities", Path: "Opportunities", Operations: ReadWrite},
	{Name: "Quotes", Path: "Quotes", Operations: ReadWrite},
	{Name: "QuoteItems", Path: "QuoteItems", Parent: "Quotes", ChildPath: "Items", Operations: FullAccess},
	{Name: "Products", Path: "Products", Operations: ReadWrite},
	{Name: "Services", Path: "Services", Operations: ReadWrite},
	{Name: "BillingCodes", Path: "BillingCodes", Operations: ReadOnly},
	{Name: "BillingItems", Path: "BillingItems", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "Invoices", Path: "Invoices", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "Expenses", Path: "ExpenseReports", Operations: ReadWrite},
	{Name: "ExpenseItems", Path: "ExpenseItems", Parent: "Expenses", ChildPath: "Items", Operations: FullAccess},
	{Name: "Appointments", Path: "Appointments", Operations: FullAccess},
	{Name: "ToDos", Path: "ToDos", Operations: FullAccess},
	{Name: "Holidays", Path: "Holidays", Parent: "HolidaySets", ChildPath: "Holidays", Operations: FullAccess},
	{Name: "HolidaySets", Path: "HolidaySets", Operations: FullAccess},
	{Name: "ServiceLevelAgreementResults", Path: "ServiceLevelAgreementResults", Operations: ReadOnly},
	{Name: "Countries", Path: "Countries", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "Currencies", Path: "Currencies", Operations: ReadOnly | OpUpdate | OpPatch},
	{Name: "InternalLocations", Path: "InternalLocations", Operations: ReadOnly},
	{Name: "Webhooks", Path: "CompanyWebhooks", Operations: FullAccess},
}

//nolint:gochecknoglobals // Index built once from entityTable
var entityIndex = buildEntityIndex()

func buildEntityIndex() map[string]EntityMeta {
	index := make(map[string]EntityMeta, len(entityTable))
	for _, meta := range entityTable {
		index[strings.ToLower(meta.Name)] = meta
	}

	return index
}

// LookupEntity finds an entity by name, case-insensitively.
func LookupEntity(name string) (EntityMeta, bool) {
	meta, ok := entityIndex[strings.ToLower(strings.TrimSpace(name))]

	return meta, ok
}

// MustLookupEntity is LookupEntity for names known at compile time.
func MustLookupEntity(name string) EntityMeta {
	meta, ok := LookupEntity(name)
	if !ok {
		panic("autotask: unknown entity " + name)
	}

	return meta
}

// Entities returns the entity table sorted by name.
func Entities() []EntityMeta {
	entities := make([]EntityMeta, len(entityTable))
	copy(entities, entityTable)

	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Name < entities[j].Name
	})

	return entities
}
