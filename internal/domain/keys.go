package domain

// KeyPrefix namespaces every key tenqd writes to the database.
const KeyPrefix = "tenqd:"
