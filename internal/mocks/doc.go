// Package mocks provides shared test doubles for the service interfaces.
//
// Function-field mocks (MockSessionService, MockPasswordVerifier) fall back to
// their default fields when no function is set. TestifyMockUserService records
// calls through testify/mock:
//
//	users := &mocks.TestifyMockUserService{}
//	users.On("GetUser", mock.Anything, id).Return(user, nil)
//
// When adding a new mock, name the file after the interface it implements.
package mocks
