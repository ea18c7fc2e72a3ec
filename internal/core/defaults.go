package core

const (
	ReimbursementCategoryName  = "Reimbursement income"
	ReimbursementCategoryIcon  = "money"
	ReimbursementCategoryColor = "#52c41a"
	ReimbursementPrefix        = "Org reimbursement: "
	TotalBudgetLabel           = "Total budget"
)

// DefaultCategories is the starter set seeded by InitDefaults.
var DefaultCategories = []Category{
	{Name: "Salary", Type: Income, Icon: "wallet", Color: "#52c41a", SortOrder: 1},
	{Name: "Part-time", Type: Income, Icon: "briefcase", Color: "#73d13d", SortOrder: 2},
	{Name: "Scholarship", Type: Income, Icon: "trophy", Color: "#95de64", SortOrder: 3},
	{Name: "Living allowance", Type: Income, Icon: "gift", Color: "#b7eb8f", SortOrder: 4},
	{Name: "Other income", Type: Income, Icon: "plus-circle", Color: "#d9f7be", SortOrder: 5},

	{Name: "Food", Type: Expense, Icon: "coffee", Color: "#ff4d4f", SortOrder: 1},
	{Name: "Transport", Type: Expense, Icon: "car", Color: "#ff7a45", SortOrder: 2},
	{Name: "Shopping", Type: Expense, Icon: "shopping", Color: "#ffa940", SortOrder: 3},
	{Name: "Study", Type: Expense, Icon: "book", Color: "#ffc53d", SortOrder: 4},
	{Name: "Entertainment", Type: Expense, Icon: "smile", Color: "#bae637", SortOrder: 5},
	{Name: "Telecom", Type: Expense, Icon: "phone", Color: "#36cfc9", SortOrder: 6},
	{Name: "Housing", Type: Expense, Icon: "home", Color: "#40a9ff", SortOrder: 7},
	{Name: "Medical", Type: Expense, Icon: "medicine-box", Color: "#9254de", SortOrder: 8},
	{Name: "Other expense", Type: Expense, Icon: "ellipsis", Color: "#8c8c8c", SortOrder: 9},
}
