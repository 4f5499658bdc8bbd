// Package mutation coordinates single-slot mutations against the catalog.
//
// A Coordinator accepts one submission at a time. After a successful remote call it runs
// its steps in order (patch the active page, invalidate the product namespace) and then
// announces the result through a Notifier. A failed call leaves every cache untouched,
// notifies the extracted message and keeps it available through LastError.
package mutation
