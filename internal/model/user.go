package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Account
// creation and credential handling live in the platform's auth service;
// this service only reads users and mutates their linked card.
//
// Fields:
//  ID        – primary key identifier of the user.
//  Email     – unique email address.
//  FirstName – display name, shown alongside the linked card.
//  LastName  – display name, shown alongside the linked card.
//  CardID    – canonical serial of the linked NFC card, empty when no card
//              has been linked yet.  Globally unique across users.
//  IsActive  – whether the account is active.
//  CreatedAt – timestamp of creation.
//  UpdatedAt – timestamp of last update.
type User struct {
    ID        uint64    // users.id
    Email     string    // users.email
    FirstName string    // users.first_name
    LastName  string    // users.last_name
    CardID    string    // users.card_id (nullable, unique)
    IsActive  bool      // users.is_active
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
