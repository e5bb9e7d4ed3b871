package usecase

import "go-form-relay/pkg/email"

// Template data keys are the payload field names plus "organization" and "supportEmail".

var careerTemplates = email.Templates{
	Internal: email.MustTemplate("career_internal",
		`New Application Received - {{.position}} ({{.firstName}} {{.lastName}})`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50;">New Job Application Received</h2>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h3 style="color: #3498db; margin-top: 0;">Candidate Details</h3>
    <p><strong>Name:</strong> {{.firstName}} {{.lastName}}</p>
    <p><strong>Position Applied:</strong> {{.position}}</p>
    <p><strong>Email:</strong> {{.email}}</p>
    <p><strong>Phone:</strong> {{orNotProvided .phone}}</p>
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h3 style="color: #3498db; margin-top: 0;">Professional Information</h3>
    <p><strong>Skills:</strong> {{orNotProvided .skills}}</p>
    <p><strong>Experience:</strong> {{orNotProvided .experience}}</p>
    <p><strong>Notice Period:</strong> {{orNotProvided .noticePeriod}}</p>
    <p><strong>LinkedIn:</strong> {{if .linkedinUrl}}<a href="{{.linkedinUrl}}">View Profile</a>{{else}}Not provided{{end}}</p>
    <p><strong>Portfolio:</strong> {{if .portfolioUrl}}<a href="{{.portfolioUrl}}">View Portfolio</a>{{else}}Not provided{{end}}</p>
  </div>
{{if .coverLetter}}
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px;">
    <h3 style="color: #3498db; margin-top: 0;">Cover Letter</h3>
    <p>{{.coverLetter}}</p>
  </div>
{{end}}
  <p style="margin-top: 20px;">{{if .hasResume}}Resume has been attached to this email.{{else}}No resume was attached.{{end}}</p>

  <div style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">
    <p>This is an automated message from the HR Recruitment System.</p>
  </div>
</div>`),

	Acknowledgment: email.MustTemplate("career_ack",
		`Application Submitted Successfully for {{.position}}`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h1 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">Application Submitted Successfully!</h1>

  <p style="font-size: 16px;"><strong>Hey {{upper .firstName}} 😊</strong></p>

  <div style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #3498db; margin: 20px 0;">
    <p style="margin: 0;">Your application for <strong>{{.position}}</strong> has been submitted successfully.</p>
  </div>

  <p>To check the progress of your application, you can login to our <strong>HR Portal</strong> and check the status under the "My Applications" section.</p>

  <p>For any help or queries, please contact our HR team at <a href="mailto:{{.supportEmail}}">{{.supportEmail}}</a>.</p>

  <div style="margin-top: 30px; padding-top: 15px; border-top: 1px solid #eee;">
    <p style="margin-bottom: 5px;">Best regards,</p>
    <p style="margin-top: 0; font-weight: bold;">HR Recruitment Team</p>
    <p style="margin: 0; font-size: 12px; color: #7f8c8d;">This is an automated message - please do not reply directly to this email.</p>
  </div>
</div>`),
}

var contactTemplates = email.Templates{
	Internal: email.MustTemplate("contact_internal",
		`New Contact Submission from {{.name}}`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">New Contact Form Submission</h2>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h3 style="color: #3498db; margin-top: 0;">Contact Details</h3>
    <p><strong>Name:</strong> {{.name}}</p>
    <p><strong>Email:</strong> {{.email}}</p>
    {{if .company}}<p><strong>Company:</strong> {{.company}}</p>{{end}}
    {{if .phone}}<p><strong>Phone:</strong> {{.phone}}</p>{{end}}
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px;">
    <h3 style="color: #3498db; margin-top: 0;">Message</h3>
    <p>{{.message}}</p>
  </div>

  <div style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">
    <p>This message was received through the corporate contact form.</p>
  </div>
</div>`),

	Acknowledgment: email.MustTemplate("contact_ack",
		`We've received your message`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h1 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">Message Received</h1>

  <p style="font-size: 16px;"><strong>Dear {{.name}},</strong></p>

  <div style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #3498db; margin: 20px 0;">
    <p style="margin: 0;">Thank you for contacting us. We've received your message and will respond within 24-48 hours.</p>
  </div>

  <p>For reference, here's what you submitted:</p>
  <blockquote style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #3498db; margin: 20px 0;">
    {{.message}}
  </blockquote>

  <div style="margin-top: 30px; padding-top: 15px; border-top: 1px solid #eee;">
    <p style="margin-bottom: 5px;">Best regards,</p>
    <p style="margin-top: 0; font-weight: bold;">{{.organization}}, TEAM</p>
    <p style="margin: 0; font-size: 12px; color: #7f8c8d;">This is an automated message - please do not reply directly to this email.</p>
  </div>
</div>`),
}

var footerTemplates = email.Templates{
	Internal: email.MustTemplate("footer_internal",
		`New Contact: {{.subject}}`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">New Contact Form Submission</h2>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin-bottom: 20px;">
    <h3 style="color: #3498db; margin-top: 0;">Contact Details</h3>
    <p><strong>Name:</strong> {{.name}}</p>
    <p><strong>Email:</strong> {{.email}}</p>
    <p><strong>Subject:</strong> {{.subject}}</p>
  </div>

  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px;">
    <h3 style="color: #3498db; margin-top: 0;">Message</h3>
    <p>{{.message}}</p>
  </div>

  <div style="margin-top: 30px; font-size: 12px; color: #7f8c8d;">
    <p>This message was received through the corporate contact form.</p>
  </div>
</div>`),

	Acknowledgment: email.MustTemplate("footer_ack",
		`We've received your message about {{.subject}}`,
		`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h1 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">Message Received</h1>

  <p style="font-size: 16px;"><strong>Dear {{.name}},</strong></p>

  <div style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #3498db; margin: 20px 0;">
    <p style="margin: 0;">Thank you for contacting us regarding <strong>{{.subject}}</strong>. We've received your message and will respond soon.</p>
  </div>

  <p>For reference, here's what you submitted:</p>
  <blockquote style="background-color: #f8f9fa; padding: 15px; border-left: 4px solid #3498db; margin: 20px 0;">
    {{.message}}
  </blockquote>

  <div style="margin-top: 30px; padding-top: 15px; border-top: 1px solid #eee;">
    <p style="margin-bottom: 5px;">Best regards,</p>
    <p style="margin-top: 0; font-weight: bold;">{{.organization}}, TEAM</p>
    <p style="margin: 0; font-size: 12px; color: #7f8c8d;">This is an automated message - please do not reply directly to this email.</p>
  </div>
</div>`),
}
