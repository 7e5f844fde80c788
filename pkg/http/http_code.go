// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

var (
	Failed                        = failed(5000, "Request failed")
	InternalError                 = failed(5001, "Internal error, please contact the administrator")
	RequestParameterParsingFailed = failed(4001, "Request parameter parsing failed")
	ValidationFailed              = failed(4002, "Request validation failed")
	BadRequest                    = failed(4000, "Bad request")
	OrgIdIsEmpty                  = failed(4003, "Org id is empty")
	UploadTooLarge                = failed(4004, "Uploaded file is too large")

	// Unauthorized
	Unauthorized           = failed(4401, "Unauthorized")
	AuthenticationFailed   = failed(4402, "Authentication failed")
	AuthorizationIncorrect = failed(4403, "The authorization header format is incorrect")
	AuthorizationEmpty     = failed(4404, "Authorization is empty")
	InvalidToken           = failed(4405, "Invalid token")
	TokenExpired           = failed(4407, "Token is expired")

	// Forbidden
	Forbidden        = failed(4030, "Forbidden")
	PermissionDenied = failed(4031, "Permission denied")

	// NotFound
	NotFound      = failed(4040, "Not found")
	InvalidTarget = failed(4041, "Invalid target")

	// Conflict
	Conflict               = failed(4090, "Conflict")
	DuplicateMembership    = failed(4091, "Already a member of this organization")
	RegistrationInProgress = failed(4092, "Registration already in progress")
	AlreadyRegistered      = failed(4093, "Transport already registered")
	SwitchSuperseded       = failed(4094, "Superseded by a newer context switch")

	// Unprocessable
	OwnerProtected = failed(4010, "The organization owner cannot be removed or demoted")
	NotCompliant   = failed(4011, "Required documents are not confirmed")
	NotQualifying  = failed(4012, "Transport does not cross a border")

	// Dependency
	DependencyFailed = failed(5021, "Upstream service failed")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}
