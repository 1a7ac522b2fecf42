// Command tagctl is the operator CLI for tagcast. It runs one-off syncs,
// cleans up and resets the database, lists tags and inspects live feeds
// without storing anything.
package main
